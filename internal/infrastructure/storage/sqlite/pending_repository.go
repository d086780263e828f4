package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
)

var _ sync.LocalStore = (*Store)(nil)

const insertPendingQuery = `
	INSERT INTO pending_operations (id, kind, draw_name, draw_date, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

// EnqueuePending ставит операцию в конец очереди
func (s *Store) EnqueuePending(ctx context.Context, op *sync.Operation) error {
	if err := insertPending(ctx, s.db, op); err != nil {
		s.log.Error("Ошибка постановки операции в очередь", "op_id", op.ID, "error", err)
		return err
	}
	return nil
}

// SaveWithPending применяет мутацию локально и ставит ее в очередь в одной транзакции
func (s *Store) SaveWithPending(ctx context.Context, op *sync.Operation) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		switch op.Kind {
		case sync.OpCreate, sync.OpUpdate:
			if op.Entity == nil {
				return sync.ErrMissingSnapshot
			}
			if err := upsertDraw(ctx, tx, replaceDrawQuery, op.Entity); err != nil {
				return err
			}
		case sync.OpDelete:
			if err := deleteDraw(ctx, tx, op.TargetID); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %q", sync.ErrUnknownOperation, op.Kind)
		}

		return insertPending(ctx, tx, op)
	})
}

func insertPending(ctx context.Context, ex execer, op *sync.Operation) error {
	var payload sql.NullString
	if op.Entity != nil {
		raw, err := json.Marshal(op.Entity)
		if err != nil {
			return fmt.Errorf("encode operation snapshot: %w", err)
		}
		payload = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := ex.ExecContext(ctx, insertPendingQuery,
		op.ID,
		string(op.Kind),
		op.TargetID.Name,
		op.TargetID.Date,
		payload,
		op.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert pending operation: %w", err)
	}

	return nil
}

// ListPending возвращает незавершенные операции в порядке постановки
func (s *Store) ListPending(ctx context.Context) ([]*sync.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, draw_name, draw_date, payload, created_at, completed, attempts, last_error
		FROM pending_operations
		WHERE completed = 0
		ORDER BY seq ASC`)
	if err != nil {
		s.log.Error("Ошибка чтения очереди операций", "error", err)
		return nil, fmt.Errorf("list pending operations: %w", err)
	}
	defer rows.Close()

	ops := make([]*sync.Operation, 0)
	for rows.Next() {
		var (
			op        sync.Operation
			kind      string
			payload   sql.NullString
			createdAt int64
		)

		if err := rows.Scan(&op.ID, &kind, &op.TargetID.Name, &op.TargetID.Date,
			&payload, &createdAt, &op.Completed, &op.Attempts, &op.LastError); err != nil {
			return nil, fmt.Errorf("scan pending operation: %w", err)
		}

		op.Kind = sync.OpKind(kind)
		op.CreatedAt = time.Unix(0, createdAt).UTC()

		if payload.Valid {
			var d draw.DrawResult
			if err := json.Unmarshal([]byte(payload.String), &d); err != nil {
				return nil, fmt.Errorf("decode operation snapshot %s: %w", op.ID, err)
			}
			op.Entity = &d
		}

		ops = append(ops, &op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending operations: %w", err)
	}

	return ops, nil
}

// CompletePending помечает операцию выполненной и удаляет ее из очереди
func (s *Store) CompletePending(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE pending_operations SET completed = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("complete pending operation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ? AND completed = 1`, id); err != nil {
			return fmt.Errorf("remove pending operation: %w", err)
		}
		return nil
	})
}

// RecordPendingFailure увеличивает счетчик попыток; операция остается в очереди
func (s *Store) RecordPendingFailure(ctx context.Context, id string, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pending_operations
		SET attempts = attempts + 1, last_error = ?
		WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("record pending failure: %w", err)
	}
	return nil
}
