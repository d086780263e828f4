package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
)

var _ sync.RemoteStore = (*Storage)(nil)

const selectDrawColumns = `
	SELECT draw_name, draw_date::text, winning_numbers, machine_numbers, updated_at
	FROM draw_results`

const upsertDrawQuery = `
	INSERT INTO draw_results (draw_name, draw_date, winning_numbers, machine_numbers, updated_at)
	VALUES ($1, $2::date, $3, $4, now())
	ON CONFLICT (draw_name, draw_date) DO UPDATE SET
		winning_numbers = EXCLUDED.winning_numbers,
		machine_numbers = EXCLUDED.machine_numbers,
		updated_at      = now()`

var orderColumns = map[string]string{
	draw.OrderUpdatedAt: "updated_at",
	draw.OrderDrawDate:  "draw_date",
}

// Query возвращает результаты по фильтру в заданном порядке
func (s *Storage) Query(ctx context.Context, filter *draw.Filter, orderBy *draw.OrderBy) ([]*draw.DrawResult, error) {
	query, args, err := buildQuery(filter, orderBy)
	if err != nil {
		return nil, sync.NewValidationError("query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.log.Error("Ошибка запроса результатов", "error", err)
		return nil, Classify("query", err)
	}
	defer rows.Close()

	result := make([]*draw.DrawResult, 0)
	for rows.Next() {
		var d draw.DrawResult
		if err := rows.Scan(&d.DrawName, &d.DrawDate, &d.WinningNumbers, &d.MachineNumbers, &d.UpdatedAt); err != nil {
			return nil, Classify("scan", err)
		}
		d.UpdatedAt = d.UpdatedAt.UTC()
		result = append(result, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, Classify("query", err)
	}

	return result, nil
}

func buildQuery(filter *draw.Filter, orderBy *draw.OrderBy) (string, []any, error) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.DrawName != "" {
			where = append(where, "draw_name = "+arg(filter.DrawName))
		}
		if filter.DateFrom != "" {
			where = append(where, "draw_date >= "+arg(filter.DateFrom)+"::date")
		}
		if filter.DateTo != "" {
			where = append(where, "draw_date <= "+arg(filter.DateTo)+"::date")
		}
		if !filter.UpdatedAfter.IsZero() {
			where = append(where, "updated_at > "+arg(filter.UpdatedAfter.UTC()))
		}
	}

	var b strings.Builder
	b.WriteString(selectDrawColumns)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	if orderBy != nil && orderBy.Field != "" {
		column, ok := orderColumns[orderBy.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported order field %q", orderBy.Field)
		}
		direction := "ASC"
		if orderBy.Desc {
			direction = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s, draw_name ASC", column, direction)
	}

	if filter != nil && filter.Limit > 0 {
		b.WriteString(" LIMIT " + arg(filter.Limit))
	}

	return b.String(), args, nil
}

// Upsert сохраняет результаты по естественному ключу одним пакетом; updated_at назначает сервер
func (s *Storage) Upsert(ctx context.Context, draws ...*draw.DrawResult) error {
	if len(draws) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range draws {
		var machine []int
		if d.HasMachineNumbers() {
			machine = d.MachineNumbers
		}
		batch.Queue(upsertDrawQuery, d.DrawName, d.DrawDate, d.WinningNumbers, machine)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, d := range draws {
		if _, err := br.Exec(); err != nil {
			s.log.Error("Ошибка сохранения результата", "draw", d.ID().String(), "error", err)
			return Classify("upsert", err)
		}
	}

	return nil
}

// DeleteByID удаляет результат; отсутствие записи не ошибка
func (s *Storage) DeleteByID(ctx context.Context, id draw.ID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM draw_results WHERE draw_name = $1 AND draw_date = $2::date`,
		id.Name, id.Date)
	if err != nil {
		s.log.Error("Ошибка удаления результата", "draw", id.String(), "error", err)
		return Classify("delete", err)
	}
	return nil
}
