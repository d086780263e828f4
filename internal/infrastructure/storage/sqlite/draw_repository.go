package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"drawsync/internal/domain/draw"
)

// replaceDrawQuery безусловная запись для локальных мутаций
const replaceDrawQuery = `
	INSERT INTO draw_results (draw_name, draw_date, winning_numbers, machine_numbers, checksum, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (draw_name, draw_date) DO UPDATE SET
		winning_numbers = excluded.winning_numbers,
		machine_numbers = excluded.machine_numbers,
		checksum        = excluded.checksum,
		updated_at      = excluded.updated_at`

// upsertDrawQuery last-writer-wins по updated_at для данных из облака
const upsertDrawQuery = replaceDrawQuery + `
	WHERE excluded.updated_at >= draw_results.updated_at`

const selectDrawColumns = `
	SELECT draw_name, draw_date, winning_numbers, machine_numbers, updated_at
	FROM draw_results`

// Get возвращает результат по ключу
func (s *Store) Get(ctx context.Context, id draw.ID) (*draw.DrawResult, error) {
	row := s.db.QueryRowContext(ctx, selectDrawColumns+` WHERE draw_name = ? AND draw_date = ?`, id.Name, id.Date)

	d, err := scanDraw(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, draw.ErrNotFound
		}
		s.log.Error("Ошибка получения записи", "draw", id.String(), "error", err)
		return nil, fmt.Errorf("get draw result: %w", err)
	}

	return d, nil
}

// GetAll возвращает результаты по фильтру, новые тиражи первыми
func (s *Store) GetAll(ctx context.Context, filter *draw.Filter) ([]*draw.DrawResult, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("Ошибка получения списка записей", "error", err)
		return nil, fmt.Errorf("list draw results: %w", err)
	}
	defer rows.Close()

	result := make([]*draw.DrawResult, 0)
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draw result: %w", err)
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draw results: %w", err)
	}

	return result, nil
}

func buildListQuery(filter *draw.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if filter != nil {
		if filter.DrawName != "" {
			where = append(where, "draw_name = ?")
			args = append(args, filter.DrawName)
		}
		if filter.DateFrom != "" {
			where = append(where, "draw_date >= ?")
			args = append(args, filter.DateFrom)
		}
		if filter.DateTo != "" {
			where = append(where, "draw_date <= ?")
			args = append(args, filter.DateTo)
		}
		if !filter.UpdatedAfter.IsZero() {
			where = append(where, "updated_at > ?")
			args = append(args, filter.UpdatedAfter.UnixNano())
		}
	}

	var b strings.Builder
	b.WriteString(selectDrawColumns)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY draw_date DESC, draw_name ASC")

	if filter != nil && filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	return b.String(), args
}

// Upsert сохраняет результат; более старая версия не перезаписывает более новую
func (s *Store) Upsert(ctx context.Context, d *draw.DrawResult) error {
	if err := upsertDraw(ctx, s.db, upsertDrawQuery, d); err != nil {
		s.log.Error("Ошибка сохранения записи", "draw", d.ID().String(), "error", err)
		return err
	}
	return nil
}

func upsertDraw(ctx context.Context, ex execer, query string, d *draw.DrawResult) error {
	winning, err := json.Marshal(d.WinningNumbers)
	if err != nil {
		return fmt.Errorf("encode winning numbers: %w", err)
	}

	var machine sql.NullString
	if d.HasMachineNumbers() {
		raw, err := json.Marshal(d.MachineNumbers)
		if err != nil {
			return fmt.Errorf("encode machine numbers: %w", err)
		}
		machine = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = ex.ExecContext(ctx, query,
		d.DrawName,
		d.DrawDate,
		string(winning),
		machine,
		draw.Checksum(d),
		d.UpdatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert draw result: %w", err)
	}

	return nil
}

// Delete удаляет результат; отсутствие записи не ошибка
func (s *Store) Delete(ctx context.Context, id draw.ID) error {
	if err := deleteDraw(ctx, s.db, id); err != nil {
		s.log.Error("Ошибка удаления записи", "draw", id.String(), "error", err)
		return err
	}
	return nil
}

func deleteDraw(ctx context.Context, ex execer, id draw.ID) error {
	_, err := ex.ExecContext(ctx, `DELETE FROM draw_results WHERE draw_name = ? AND draw_date = ?`, id.Name, id.Date)
	if err != nil {
		return fmt.Errorf("delete draw result: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraw(row scanner) (*draw.DrawResult, error) {
	var (
		d         draw.DrawResult
		winning   string
		machine   sql.NullString
		updatedAt int64
	)

	if err := row.Scan(&d.DrawName, &d.DrawDate, &winning, &machine, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(winning), &d.WinningNumbers); err != nil {
		return nil, fmt.Errorf("decode winning numbers: %w", err)
	}
	if machine.Valid {
		if err := json.Unmarshal([]byte(machine.String), &d.MachineNumbers); err != nil {
			return nil, fmt.Errorf("decode machine numbers: %w", err)
		}
	}
	d.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &d, nil
}
