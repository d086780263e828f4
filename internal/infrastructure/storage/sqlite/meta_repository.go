package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const watermarkKey = "last_sync_at"

// GetWatermark читает отметку последней синхронизации; ok == false если ее нет
func (s *Store) GetWatermark(ctx context.Context) (time.Time, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?`, watermarkKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("get watermark: %w", err)
	}

	wm, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse watermark %q: %w", value, err)
	}

	return wm, true, nil
}

// SetWatermark атомарно сохраняет отметку
func (s *Store) SetWatermark(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_meta (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		watermarkKey, t.UTC().Format(time.RFC3339Nano), time.Now().UnixNano())
	if err != nil {
		s.log.Error("Ошибка сохранения отметки синхронизации", "error", err)
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}
