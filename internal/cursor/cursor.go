// Package cursor хранит момент, до которого данные уже получены из облака.
package cursor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store долговечное хранилище отметки
type Store interface {
	GetWatermark(ctx context.Context) (time.Time, bool, error)
	SetWatermark(ctx context.Context, t time.Time) error
}

// Tracker отметка синхронизации. Отметка никогда не сдвигается назад.
type Tracker struct {
	store Store
	mu    sync.Mutex
}

func New(store Store) *Tracker {
	return &Tracker{store: store}
}

// Read возвращает отметку; ok == false означает "вся история"
func (t *Tracker) Read(ctx context.Context) (time.Time, bool, error) {
	wm, ok, err := t.store.GetWatermark(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark: %w", err)
	}
	if !ok || wm.IsZero() {
		return time.Time{}, false, nil
	}
	return wm.UTC(), true, nil
}

// Advance сохраняет max(текущая, next) и возвращает итоговую отметку
func (t *Tracker) Advance(ctx context.Context, next time.Time) (time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok, err := t.Read(ctx)
	if err != nil {
		return time.Time{}, err
	}

	next = next.UTC()
	if ok && !next.After(current) {
		return current, nil
	}

	if err := t.store.SetWatermark(ctx, next); err != nil {
		return time.Time{}, fmt.Errorf("write watermark: %w", err)
	}
	return next, nil
}
