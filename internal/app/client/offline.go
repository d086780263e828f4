package client

import (
	"context"
	"errors"

	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
	"drawsync/internal/retry"
)

var errRemoteNotConfigured = errors.New("remote database is not configured")

// offlineRemote используется без облачного хранилища: операции остаются в очереди
type offlineRemote struct{}

func (offlineRemote) Query(context.Context, *draw.Filter, *draw.OrderBy) ([]*draw.DrawResult, error) {
	return nil, retry.Permanent(sync.NewNetworkError("query", errRemoteNotConfigured))
}

func (offlineRemote) Upsert(context.Context, ...*draw.DrawResult) error {
	return sync.NewNetworkError("upsert", errRemoteNotConfigured)
}

func (offlineRemote) DeleteByID(context.Context, draw.ID) error {
	return sync.NewNetworkError("delete", errRemoteNotConfigured)
}
