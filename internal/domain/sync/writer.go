package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"drawsync/internal/domain/draw"
)

// Writer локальные мутации: запись в реплику и постановка операции в очередь
type Writer struct {
	local LocalStore
	log   *slog.Logger
	now   func() time.Time
}

// NewWriter создает сервис локальных изменений
func NewWriter(local LocalStore, log *slog.Logger) *Writer {
	return &Writer{
		local: local,
		log:   log.With("component", "sync_writer"),
		now:   time.Now,
	}
}

// Create сохраняет новый результат локально и ставит create в очередь
func (w *Writer) Create(ctx context.Context, d *draw.DrawResult) (*Operation, error) {
	if err := draw.Validate(d); err != nil {
		return nil, err
	}

	_, err := w.local.Get(ctx, d.ID())
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", draw.ErrAlreadyExists, d.ID())
	case !errors.Is(err, draw.ErrNotFound):
		return nil, storageError("get", err)
	}

	return w.save(ctx, OpCreate, d, nil)
}

// Update заменяет существующий результат и ставит update в очередь
func (w *Writer) Update(ctx context.Context, d *draw.DrawResult) (*Operation, error) {
	if err := draw.Validate(d); err != nil {
		return nil, err
	}

	current, err := w.local.Get(ctx, d.ID())
	if err != nil {
		if errors.Is(err, draw.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", draw.ErrNotFound, d.ID())
		}
		return nil, storageError("get", err)
	}

	return w.save(ctx, OpUpdate, d, current)
}

// Delete удаляет результат локально и ставит delete в очередь
func (w *Writer) Delete(ctx context.Context, id draw.ID) (*Operation, error) {
	if _, err := w.local.Get(ctx, id); err != nil {
		if errors.Is(err, draw.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", draw.ErrNotFound, id)
		}
		return nil, storageError("get", err)
	}

	op := NewDeleteOperation(id, w.now().UTC())
	if err := w.local.SaveWithPending(ctx, op); err != nil {
		w.log.Error("Ошибка сохранения операции", "op_id", op.ID, "kind", op.Kind, "error", err)
		return nil, storageError("save pending", err)
	}

	w.log.Debug("Операция поставлена в очередь", "op_id", op.ID, "kind", op.Kind, "draw", id.String())
	return op, nil
}

// save ставит снимку отметку строго новее текущей версии записи,
// даже если updated_at пришел с сервера с опережающими часами
func (w *Writer) save(ctx context.Context, kind OpKind, d *draw.DrawResult, current *draw.DrawResult) (*Operation, error) {
	now := w.now().UTC()
	stamp := now
	if current != nil && !stamp.After(current.UpdatedAt) {
		stamp = current.UpdatedAt.UTC().Add(time.Nanosecond)
	}

	snapshot := d.Clone()
	snapshot.UpdatedAt = stamp

	op := NewUpsertOperation(kind, snapshot, now)
	if err := w.local.SaveWithPending(ctx, op); err != nil {
		w.log.Error("Ошибка сохранения операции", "op_id", op.ID, "kind", kind, "error", err)
		return nil, storageError("save pending", err)
	}

	w.log.Debug("Операция поставлена в очередь", "op_id", op.ID, "kind", kind, "draw", op.TargetID.String())
	return op, nil
}
