package sync

import (
	"context"
	"time"

	"drawsync/internal/domain/draw"
)

// LocalStore локальная реплика с очередью отложенных операций.
// Get возвращает draw.ErrNotFound, если записи нет; Delete отсутствующей записи не ошибка.
type LocalStore interface {
	Get(ctx context.Context, id draw.ID) (*draw.DrawResult, error)
	GetAll(ctx context.Context, filter *draw.Filter) ([]*draw.DrawResult, error)
	Upsert(ctx context.Context, d *draw.DrawResult) error
	Delete(ctx context.Context, id draw.ID) error

	// SaveWithPending применяет мутацию op локально и ставит ее в очередь одной транзакцией
	SaveWithPending(ctx context.Context, op *Operation) error
	EnqueuePending(ctx context.Context, op *Operation) error
	ListPending(ctx context.Context) ([]*Operation, error)
	CompletePending(ctx context.Context, id string) error
	RecordPendingFailure(ctx context.Context, id string, reason string) error

	GetWatermark(ctx context.Context) (time.Time, bool, error)
	SetWatermark(ctx context.Context, t time.Time) error
}

// RemoteStore клиент облачного хранилища.
// Ошибки должны быть *RemoteError с видом auth, network или validation.
type RemoteStore interface {
	Query(ctx context.Context, filter *draw.Filter, orderBy *draw.OrderBy) ([]*draw.DrawResult, error)
	Upsert(ctx context.Context, draws ...*draw.DrawResult) error
	DeleteByID(ctx context.Context, id draw.ID) error
}
