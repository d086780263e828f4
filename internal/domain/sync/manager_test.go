package sync

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"drawsync/internal/domain/draw"
	"drawsync/internal/retry"
)

var (
	cycleStart = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	pullOrder  = &draw.OrderBy{Field: draw.OrderUpdatedAt, Desc: true}
)

func testConfig() *Config {
	return &Config{
		Enabled:  true,
		Interval: time.Hour,
		Retry: retry.Config{
			MaxRetries:   2,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
			Multiplier:   2,
		},
	}
}

func newTestManager(local LocalStore, remote RemoteStore, now time.Time) *Manager {
	m := NewManager(local, remote, slog.Default(), testConfig())
	m.now = func() time.Time { return now }
	return m
}

func sampleDraw(name, date string, updated time.Time) *draw.DrawResult {
	return &draw.DrawResult{
		DrawName:       name,
		DrawDate:       date,
		WinningNumbers: []int{3, 14, 15, 90, 65},
		UpdatedAt:      updated,
	}
}

func pendingIDs(t *testing.T, local *memoryLocal) []string {
	t.Helper()
	ops, err := local.ListPending(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.ID)
	}
	return ids
}

func TestManager_SyncFromCloud_EmptyLocalStore(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	remote := new(MockRemoteStore)
	m := newTestManager(local, remote, cycleStart)

	rows := []*draw.DrawResult{
		sampleDraw("Réveil", "2024-01-03", cycleStart.Add(-time.Hour)),
		sampleDraw("Étoile", "2024-01-02", cycleStart.Add(-2*time.Hour)),
		sampleDraw("Akwaba", "2024-01-01", cycleStart.Add(-3*time.Hour)),
	}
	remote.On("Query", mock.Anything, mock.MatchedBy(func(f *draw.Filter) bool {
		return f.UpdatedAfter.IsZero()
	}), pullOrder).Return(rows, nil).Once()

	res, err := m.SyncFromCloud(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Downloaded)
	assert.False(t, res.Skipped)

	all, err := local.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	wm, ok, err := local.GetWatermark(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, cycleStart.Equal(wm))
	assert.True(t, cycleStart.Equal(res.Watermark))
	remote.AssertExpectations(t)
}

func TestManager_SyncFromCloud_UsesWatermark(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	previous := cycleStart.Add(-24 * time.Hour)
	require.NoError(t, local.SetWatermark(ctx, previous))

	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.MatchedBy(func(f *draw.Filter) bool {
		return f.UpdatedAfter.Equal(previous)
	}), pullOrder).Return([]*draw.DrawResult{}, nil).Once()

	m := newTestManager(local, remote, cycleStart)
	_, err := m.SyncFromCloud(ctx)

	require.NoError(t, err)
	remote.AssertExpectations(t)
}

func TestManager_SyncFromCloud_QueryErrorKeepsWatermark(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	previous := cycleStart.Add(-time.Hour)
	require.NoError(t, local.SetWatermark(ctx, previous))

	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, NewAuthError("query", errors.New("jwt expired")))

	m := newTestManager(local, remote, cycleStart)
	_, err := m.SyncFromCloud(ctx)

	require.Error(t, err)
	assert.True(t, IsAuth(err))
	remote.AssertNumberOfCalls(t, "Query", 1)

	wm, _, _ := local.GetWatermark(ctx)
	assert.True(t, previous.Equal(wm))
}

func TestManager_SyncFromCloud_RetriesNetworkError(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, NewNetworkError("query", errors.New("connection reset"))).Once()
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return([]*draw.DrawResult{sampleDraw("Réveil", "2024-01-01", cycleStart)}, nil).Once()

	m := newTestManager(local, remote, cycleStart)
	res, err := m.SyncFromCloud(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Downloaded)
	remote.AssertNumberOfCalls(t, "Query", 2)
}

func TestManager_SyncFromCloud_NetworkErrorExhausted(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, NewNetworkError("query", errors.New("no route to host")))

	m := newTestManager(local, remote, cycleStart)
	_, err := m.SyncFromCloud(ctx)

	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	remote.AssertNumberOfCalls(t, "Query", 3)

	_, ok, _ := local.GetWatermark(ctx)
	assert.False(t, ok)
}

func TestManager_SyncFromCloud_LocalWriteFailure(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	local.upsertErr = errors.New("database is locked")

	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return([]*draw.DrawResult{sampleDraw("Réveil", "2024-01-01", cycleStart)}, nil)

	m := newTestManager(local, remote, cycleStart)
	_, err := m.SyncFromCloud(ctx)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upsert", se.Op)

	_, ok, _ := local.GetWatermark(ctx)
	assert.False(t, ok, "watermark must not move after a partial pull")
}

func TestManager_SyncFromCloud_WatermarkNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	future := cycleStart.Add(time.Hour)
	require.NoError(t, local.SetWatermark(ctx, future))

	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).Return([]*draw.DrawResult{}, nil)

	m := newTestManager(local, remote, cycleStart)
	res, err := m.SyncFromCloud(ctx)

	require.NoError(t, err)
	wm, _, _ := local.GetWatermark(ctx)
	assert.True(t, future.Equal(wm))
	assert.True(t, future.Equal(res.Watermark))
}

func TestManager_SyncFromCloud_Idempotent(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	rows := []*draw.DrawResult{
		sampleDraw("Réveil", "2024-01-01", cycleStart.Add(-time.Minute)),
		sampleDraw("Étoile", "2024-01-01", cycleStart.Add(-2*time.Minute)),
	}

	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil)

	m := newTestManager(local, remote, cycleStart)

	_, err := m.SyncFromCloud(ctx)
	require.NoError(t, err)
	first, err := local.GetAll(ctx, nil)
	require.NoError(t, err)

	_, err = m.SyncFromCloud(ctx)
	require.NoError(t, err)
	second, err := local.GetAll(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestManager_SyncFromCloud_ConcurrentCallIsNoop(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	remote := new(MockRemoteStore)

	started := make(chan struct{})
	release := make(chan struct{})
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]*draw.DrawResult{}, nil).Once()

	m := newTestManager(local, remote, cycleStart)

	var first *Result
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		first, firstErr = m.SyncFromCloud(ctx)
	}()

	<-started
	assert.True(t, m.IsSyncing())

	second, err := m.SyncFromCloud(ctx)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	_, ok, _ := local.GetWatermark(ctx)
	assert.False(t, ok, "skipped call must not mutate state")

	close(release)
	<-done

	require.NoError(t, firstErr)
	assert.False(t, first.Skipped)
	assert.False(t, m.IsSyncing())
	remote.AssertNumberOfCalls(t, "Query", 1)
	assert.Equal(t, 1, m.GetStats().TotalSkipped)
}

func TestManager_InFlightClearedAfterError(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	local.listErr = errors.New("disk I/O error")
	m := newTestManager(local, new(MockRemoteStore), cycleStart)

	for i := 0; i < 2; i++ {
		res, err := m.SyncToCloud(ctx)
		require.Error(t, err)
		assert.False(t, res.Skipped)
		assert.False(t, m.IsSyncing())
	}
}

func TestManager_SyncToCloud_NetworkErrorKeepsOperation(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	op := NewUpsertOperation(OpCreate, sampleDraw("Réveil", "2024-01-01", cycleStart), cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, op))

	isReveil := mock.MatchedBy(func(ds []*draw.DrawResult) bool {
		return len(ds) == 1 && ds[0].DrawName == "Réveil" && ds[0].DrawDate == "2024-01-01"
	})
	remote := new(MockRemoteStore)
	remote.On("Upsert", mock.Anything, isReveil).
		Return(NewNetworkError("upsert", errors.New("connection reset by peer"))).Once()
	remote.On("Upsert", mock.Anything, isReveil).Return(nil).Once()

	m := newTestManager(local, remote, cycleStart)

	res, err := m.SyncToCloud(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Inserted)

	var partial *PartialSyncFailure
	require.ErrorAs(t, res.Err(), &partial)
	assert.True(t, IsNetwork(res.Err()))
	assert.Equal(t, []string{op.ID}, pendingIDs(t, local))

	ops, _ := local.ListPending(ctx)
	assert.Equal(t, 1, ops[0].Attempts)
	assert.Contains(t, ops[0].LastError, "connection reset by peer")

	res, err = m.SyncToCloud(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.NoError(t, res.Err())
	assert.Empty(t, pendingIDs(t, local))
	remote.AssertExpectations(t)
}

func TestManager_SyncToCloud_ValidationBeforeRemote(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	bad := sampleDraw("Réveil", "2024-01-02", cycleStart)
	bad.MachineNumbers = []int{1, 1, 2, 3, 4}
	op := NewUpsertOperation(OpCreate, bad, cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, op))

	remote := new(MockRemoteStore)
	m := newTestManager(local, remote, cycleStart)

	res, err := m.SyncToCloud(ctx)

	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.True(t, IsValidation(res.Failures[0].Cause))
	assert.True(t, errors.Is(res.Failures[0].Cause, draw.ErrInvalidDraw))
	remote.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Equal(t, []string{op.ID}, pendingIDs(t, local))
}

func TestManager_SyncToCloud_RejectedOperationSkipped(t *testing.T) {
	tests := []struct {
		name   string
		op     func() *Operation
		remote func(r *MockRemoteStore)
	}{
		{
			name: "invalid snapshot",
			op: func() *Operation {
				bad := sampleDraw("Réveil", "2024-01-02", cycleStart)
				bad.WinningNumbers = []int{1, 1, 2, 3, 4}
				return NewUpsertOperation(OpCreate, bad, cycleStart)
			},
			remote: func(r *MockRemoteStore) {},
		},
		{
			name: "rejected by remote constraint",
			op: func() *Operation {
				return NewUpsertOperation(OpUpdate, sampleDraw("Étoile", "2024-01-01", cycleStart), cycleStart)
			},
			remote: func(r *MockRemoteStore) {
				r.On("Upsert", mock.Anything, mock.Anything).
					Return(NewValidationError("upsert", errors.New("check constraint violated"))).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			local := newMemoryLocal()
			op := tt.op()
			require.NoError(t, local.EnqueuePending(ctx, op))

			remote := new(MockRemoteStore)
			tt.remote(remote)
			m := newTestManager(local, remote, cycleStart)

			res, err := m.SyncToCloud(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Failed)

			res, err = m.SyncToCloud(ctx)
			require.NoError(t, err)
			assert.Zero(t, res.Failed)
			assert.Equal(t, 1, res.Rejected)
			assert.NoError(t, res.Err())

			ops, err := local.ListPending(ctx)
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.Equal(t, 1, ops[0].Attempts, "rejected operation is not sent again")
			remote.AssertExpectations(t)
		})
	}
}

func TestManager_SyncToCloud_ContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()

	first := NewUpsertOperation(OpCreate, sampleDraw("Akwaba", "2024-01-01", cycleStart), cycleStart)
	second := NewUpsertOperation(OpUpdate, sampleDraw("Étoile", "2024-01-01", cycleStart), cycleStart)
	third := NewDeleteOperation(draw.ID{Name: "Réveil", Date: "2023-12-31"}, cycleStart)
	for _, op := range []*Operation{first, second, third} {
		require.NoError(t, local.EnqueuePending(ctx, op))
	}

	byName := func(name string) interface{} {
		return mock.MatchedBy(func(ds []*draw.DrawResult) bool { return ds[0].DrawName == name })
	}
	remote := new(MockRemoteStore)
	remote.On("Upsert", mock.Anything, byName("Akwaba")).Return(nil)
	remote.On("Upsert", mock.Anything, byName("Étoile")).
		Return(NewValidationError("upsert", errors.New("check constraint violated")))
	remote.On("DeleteByID", mock.Anything, third.TargetID).Return(nil)

	m := newTestManager(local, remote, cycleStart)
	res, err := m.SyncToCloud(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{second.ID}, pendingIDs(t, local))

	require.Len(t, remote.Calls, 3)
	assert.Equal(t, "Upsert", remote.Calls[0].Method)
	assert.Equal(t, "Upsert", remote.Calls[1].Method)
	assert.Equal(t, "DeleteByID", remote.Calls[2].Method)
}

func TestManager_SyncToCloud_AuthErrorSurfaced(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	a := NewUpsertOperation(OpCreate, sampleDraw("Akwaba", "2024-01-01", cycleStart), cycleStart)
	b := NewDeleteOperation(draw.ID{Name: "Étoile", Date: "2024-01-01"}, cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, a))
	require.NoError(t, local.EnqueuePending(ctx, b))

	remote := new(MockRemoteStore)
	remote.On("Upsert", mock.Anything, mock.Anything).
		Return(NewAuthError("upsert", errors.New("permission denied")))
	remote.On("DeleteByID", mock.Anything, b.TargetID).Return(nil)

	m := newTestManager(local, remote, cycleStart)
	res, err := m.SyncToCloud(ctx)

	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.Equal(t, 1, res.Deleted, "loop continues past the auth failure")
	assert.Equal(t, []string{a.ID}, pendingIDs(t, local))
}

func TestManager_BidirectionalSync_PushThenPull(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	op := NewUpsertOperation(OpCreate, sampleDraw("Réveil", "2024-01-01", cycleStart), cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, op))

	remote := new(MockRemoteStore)
	remote.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	remote.On("Query", mock.Anything, mock.Anything, pullOrder).
		Return([]*draw.DrawResult{sampleDraw("Réveil", "2024-01-01", cycleStart.Add(time.Second))}, nil)

	m := newTestManager(local, remote, cycleStart)
	res, err := m.BidirectionalSync(ctx)

	require.NoError(t, err)
	assert.Equal(t, PhaseBidirectional, res.Phase)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Downloaded)
	require.Len(t, remote.Calls, 2)
	assert.Equal(t, "Upsert", remote.Calls[0].Method)
	assert.Equal(t, "Query", remote.Calls[1].Method)
}

func TestManager_BidirectionalSync_PushErrorSkipsPull(t *testing.T) {
	tests := []struct {
		name  string
		setup func(local *memoryLocal, remote *MockRemoteStore)
		check func(t *testing.T, err error)
	}{
		{
			name: "storage error",
			setup: func(local *memoryLocal, remote *MockRemoteStore) {
				local.listErr = errors.New("disk full")
			},
			check: func(t *testing.T, err error) {
				var se *StorageError
				assert.ErrorAs(t, err, &se)
			},
		},
		{
			name: "auth error",
			setup: func(local *memoryLocal, remote *MockRemoteStore) {
				op := NewUpsertOperation(OpCreate, sampleDraw("Réveil", "2024-01-01", cycleStart), cycleStart)
				_ = local.EnqueuePending(context.Background(), op)
				remote.On("Upsert", mock.Anything, mock.Anything).
					Return(NewAuthError("upsert", errors.New("invalid api key")))
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuth(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newMemoryLocal()
			remote := new(MockRemoteStore)
			tt.setup(local, remote)

			m := newTestManager(local, remote, cycleStart)
			_, err := m.BidirectionalSync(context.Background())

			require.Error(t, err)
			tt.check(t, err)
			remote.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
			_, ok, _ := local.GetWatermark(context.Background())
			assert.False(t, ok)
		})
	}
}

func TestManager_BidirectionalSync_PartialPushStillPulls(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	op := NewUpsertOperation(OpCreate, sampleDraw("Réveil", "2024-01-01", cycleStart), cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, op))

	remote := new(MockRemoteStore)
	remote.On("Upsert", mock.Anything, mock.Anything).
		Return(NewNetworkError("upsert", errors.New("timeout")))
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).Return([]*draw.DrawResult{}, nil)

	m := newTestManager(local, remote, cycleStart)
	res, err := m.BidirectionalSync(ctx)

	var partial *PartialSyncFailure
	require.ErrorAs(t, err, &partial)
	assert.Len(t, partial.Failures, 1)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, cycleStart.Equal(res.Watermark))
	assert.Equal(t, []string{op.ID}, pendingIDs(t, local))
}

func TestManager_BidirectionalSync_PullErrorAggregated(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	op := NewDeleteOperation(draw.ID{Name: "Réveil", Date: "2024-01-01"}, cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, op))

	remote := new(MockRemoteStore)
	remote.On("DeleteByID", mock.Anything, op.TargetID).
		Return(NewNetworkError("delete", errors.New("timeout")))
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, NewValidationError("query", errors.New("bad filter")))

	m := newTestManager(local, remote, cycleStart)
	_, err := m.BidirectionalSync(ctx)

	require.Error(t, err)
	var partial *PartialSyncFailure
	assert.ErrorAs(t, err, &partial)
	assert.True(t, IsValidation(err))
}

func TestManager_BidirectionalSync_Converges(t *testing.T) {
	ctx := context.Background()
	clock := newClock(cycleStart)
	local := newMemoryLocal()
	remote := newMemoryRemote(clock.Now)

	require.NoError(t, remote.Upsert(ctx,
		sampleDraw("Akwaba", "2024-01-01", time.Time{}),
		sampleDraw("Étoile", "2024-01-01", time.Time{}),
		sampleDraw("Réveil", "2023-12-31", time.Time{}),
	))

	m := NewManager(local, remote, slog.Default(), testConfig())
	m.now = clock.Now
	w := NewWriter(local, slog.Default())
	w.now = clock.Now

	_, err := m.BidirectionalSync(ctx)
	require.NoError(t, err)

	created := sampleDraw("Réveil", "2024-01-01", time.Time{})
	created.MachineNumbers = []int{10, 20, 30, 40, 50}
	_, err = w.Create(ctx, created)
	require.NoError(t, err)

	updated := sampleDraw("Akwaba", "2024-01-01", time.Time{})
	updated.WinningNumbers = []int{1, 2, 3, 4, 5}
	_, err = w.Update(ctx, updated)
	require.NoError(t, err)

	_, err = w.Delete(ctx, draw.ID{Name: "Réveil", Date: "2023-12-31"})
	require.NoError(t, err)

	require.NoError(t, remote.Upsert(ctx, sampleDraw("Fortune", "2024-01-02", time.Time{})))

	_, err = m.BidirectionalSync(ctx)
	require.NoError(t, err)

	localRows, err := local.GetAll(ctx, nil)
	require.NoError(t, err)
	remoteRows, err := remote.Query(ctx, nil, nil)
	require.NoError(t, err)
	sort.Slice(remoteRows, func(i, j int) bool { return remoteRows[i].ID().String() < remoteRows[j].ID().String() })

	assert.Equal(t, remoteRows, localRows)
	assert.Len(t, localRows, 4)
	assert.Empty(t, pendingIDs(t, local))
}

// syncedPair локальная реплика и облако после первой синхронизации с записью Réveil/2024-01-01
func syncedPair(t *testing.T) (*memoryLocal, *flakyRemote, *Manager, *Writer) {
	t.Helper()

	ctx := context.Background()
	clock := newClock(cycleStart)
	local := newMemoryLocal()
	remote := &flakyRemote{memoryRemote: newMemoryRemote(clock.Now)}
	require.NoError(t, remote.Upsert(ctx, sampleDraw("Réveil", "2024-01-01", time.Time{})))

	m := NewManager(local, remote, slog.Default(), testConfig())
	m.now = clock.Now
	w := NewWriter(local, slog.Default())
	w.now = clock.Now

	_, err := m.BidirectionalSync(ctx)
	require.NoError(t, err)

	return local, remote, m, w
}

func assertConverged(t *testing.T, local *memoryLocal, remote *flakyRemote) {
	t.Helper()

	ctx := context.Background()
	localRows, err := local.GetAll(ctx, nil)
	require.NoError(t, err)
	remoteRows, err := remote.Query(ctx, nil, nil)
	require.NoError(t, err)
	sort.Slice(remoteRows, func(i, j int) bool { return remoteRows[i].ID().String() < remoteRows[j].ID().String() })

	if len(remoteRows) == 0 {
		assert.Empty(t, localRows)
		return
	}
	assert.Equal(t, remoteRows, localRows)
}

func TestManager_BidirectionalSync_PendingDeleteNotResurrected(t *testing.T) {
	ctx := context.Background()
	local, remote, m, w := syncedPair(t)
	id := draw.ID{Name: "Réveil", Date: "2024-01-01"}

	// запись меняют в облаке, пока локально она удалена без сети
	changed := sampleDraw("Réveil", "2024-01-01", time.Time{})
	changed.WinningNumbers = []int{9, 8, 7, 6, 5}
	require.NoError(t, remote.Upsert(ctx, changed))

	_, err := w.Delete(ctx, id)
	require.NoError(t, err)
	remote.deleteErr = NewNetworkError("delete", errors.New("connection reset by peer"))

	res, err := m.BidirectionalSync(ctx)
	var partial *PartialSyncFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, res.Deferred)
	assert.Zero(t, res.Downloaded)

	_, err = local.Get(ctx, id)
	require.ErrorIs(t, err, draw.ErrNotFound, "pull must not bring back a locally deleted row")

	res, err = m.BidirectionalSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	_, err = local.Get(ctx, id)
	assert.ErrorIs(t, err, draw.ErrNotFound)
	assertConverged(t, local, remote)
	assert.Empty(t, pendingIDs(t, local))
}

func TestManager_BidirectionalSync_PendingUpdateKeptOverNewerRemote(t *testing.T) {
	ctx := context.Background()
	local, remote, m, w := syncedPair(t)
	id := draw.ID{Name: "Réveil", Date: "2024-01-01"}

	edited := sampleDraw("Réveil", "2024-01-01", time.Time{})
	edited.WinningNumbers = []int{1, 2, 3, 4, 5}
	_, err := w.Update(ctx, edited)
	require.NoError(t, err)

	// облачная версия новее локальной правки
	concurrent := sampleDraw("Réveil", "2024-01-01", time.Time{})
	concurrent.WinningNumbers = []int{9, 8, 7, 6, 5}
	require.NoError(t, remote.Upsert(ctx, concurrent))
	remote.upsertErr = NewNetworkError("upsert", errors.New("timeout"))

	res, err := m.BidirectionalSync(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, res.Deferred)

	got, err := local.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got.WinningNumbers)

	_, err = m.BidirectionalSync(ctx)
	require.NoError(t, err)

	got, err = local.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got.WinningNumbers)
	assertConverged(t, local, remote)
}

func TestManager_ApplyChange_PendingLocalWrite(t *testing.T) {
	ctx := context.Background()
	id := draw.ID{Name: "Réveil", Date: "2024-01-01"}
	local := sampleDraw("Réveil", "2024-01-01", cycleStart)
	remote := local.Clone()
	remote.WinningNumbers = []int{9, 8, 7, 6, 5}
	remote.UpdatedAt = cycleStart.Add(time.Hour)

	tests := []struct {
		name  string
		op    *Operation
		event ChangeEvent
		want  []*draw.DrawResult
	}{
		{
			name:  "insert event after local delete",
			op:    NewDeleteOperation(id, cycleStart),
			event: ChangeEvent{Type: EventInsert, Entity: remote},
			want:  []*draw.DrawResult{},
		},
		{
			name:  "newer update event after local update",
			op:    NewUpsertOperation(OpUpdate, local, cycleStart),
			event: ChangeEvent{Type: EventUpdate, Entity: remote},
			want:  []*draw.DrawResult{local},
		},
		{
			name:  "delete event after local create",
			op:    NewUpsertOperation(OpCreate, local, cycleStart),
			event: ChangeEvent{Type: EventDelete, DeletedID: id},
			want:  []*draw.DrawResult{local},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryLocal()
			require.NoError(t, store.SaveWithPending(ctx, tt.op))
			m := newTestManager(store, new(MockRemoteStore), cycleStart)

			require.NoError(t, m.ApplyChange(ctx, tt.event))

			got, err := store.GetAll(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// после подтверждения операции события снова применяются
			require.NoError(t, store.CompletePending(ctx, tt.op.ID))
			require.NoError(t, m.ApplyChange(ctx, tt.event))

			got, err = store.GetAll(ctx, nil)
			require.NoError(t, err)
			if tt.event.Type == EventDelete {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, []*draw.DrawResult{remote}, got)
			}
		})
	}
}

func TestManager_ApplyChange_PendingListError(t *testing.T) {
	local := newMemoryLocal()
	local.listErr = errors.New("disk I/O error")
	m := newTestManager(local, new(MockRemoteStore), cycleStart)

	err := m.ApplyChange(context.Background(), ChangeEvent{Type: EventInsert, Entity: sampleDraw("Réveil", "2024-01-01", cycleStart)})

	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestManager_ApplyChange(t *testing.T) {
	ctx := context.Background()
	base := sampleDraw("Réveil", "2024-01-01", cycleStart)
	newer := base.Clone()
	newer.WinningNumbers = []int{1, 2, 3, 4, 5}
	newer.UpdatedAt = cycleStart.Add(time.Minute)

	tests := []struct {
		name    string
		seed    []*draw.DrawResult
		events  []ChangeEvent
		want    []*draw.DrawResult
		wantErr error
	}{
		{
			name:   "insert into empty store",
			events: []ChangeEvent{{Type: EventInsert, Entity: base}},
			want:   []*draw.DrawResult{base},
		},
		{
			name:   "update of missing entity acts as insert",
			events: []ChangeEvent{{Type: EventUpdate, Entity: newer}},
			want:   []*draw.DrawResult{newer},
		},
		{
			name:   "update replaces",
			seed:   []*draw.DrawResult{base},
			events: []ChangeEvent{{Type: EventUpdate, Entity: newer}},
			want:   []*draw.DrawResult{newer},
		},
		{
			name:   "same event twice is idempotent",
			events: []ChangeEvent{{Type: EventInsert, Entity: base}, {Type: EventInsert, Entity: base}},
			want:   []*draw.DrawResult{base},
		},
		{
			name:   "delete",
			seed:   []*draw.DrawResult{base},
			events: []ChangeEvent{{Type: EventDelete, DeletedID: base.ID()}},
			want:   []*draw.DrawResult{},
		},
		{
			name:   "delete of missing entity",
			events: []ChangeEvent{{Type: EventDelete, DeletedID: base.ID()}},
			want:   []*draw.DrawResult{},
		},
		{
			name:    "insert without entity",
			events:  []ChangeEvent{{Type: EventInsert}},
			want:    []*draw.DrawResult{},
			wantErr: ErrMissingSnapshot,
		},
		{
			name:    "unknown event",
			events:  []ChangeEvent{{Type: "truncate"}},
			want:    []*draw.DrawResult{},
			wantErr: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newMemoryLocal()
			for _, d := range tt.seed {
				require.NoError(t, local.Upsert(ctx, d))
			}
			m := newTestManager(local, new(MockRemoteStore), cycleStart)

			var err error
			for _, ev := range tt.events {
				if err = m.ApplyChange(ctx, ev); err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			got, err := local.GetAll(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			_, ok, _ := local.GetWatermark(ctx)
			assert.False(t, ok, "change events never touch the watermark")
		})
	}
}

func TestManager_Status(t *testing.T) {
	ctx := context.Background()
	local := newMemoryLocal()
	op := NewDeleteOperation(draw.ID{Name: "Réveil", Date: "2024-01-01"}, cycleStart)
	require.NoError(t, local.EnqueuePending(ctx, op))

	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).Return([]*draw.DrawResult{}, nil)

	m := newTestManager(local, remote, cycleStart)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.HasWatermark)
	assert.Len(t, status.Pending, 1)
	assert.Nil(t, status.LastResult)

	_, err = m.SyncFromCloud(ctx)
	require.NoError(t, err)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasWatermark)
	assert.True(t, cycleStart.Equal(status.Watermark))
	require.NotNil(t, status.LastResult)
	assert.Equal(t, PhasePull, status.LastResult.Phase)
	assert.Equal(t, 1, status.Stats.TotalSyncs)
	assert.False(t, status.Stats.LastSuccessful.IsZero())

	m.ResetStats()
	assert.Equal(t, Stats{}, m.GetStats())
}

func TestManager_StartAutoSync(t *testing.T) {
	local := newMemoryLocal()
	remote := new(MockRemoteStore)
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything).Return([]*draw.DrawResult{}, nil)

	cfg := testConfig()
	cfg.Interval = 5 * time.Millisecond
	m := NewManager(local, remote, slog.Default(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.StartAutoSync(ctx)
	}()

	assert.Eventually(t, func() bool {
		return m.GetStats().TotalSyncs >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auto sync did not stop")
	}
}

func TestManager_StartAutoSync_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	m := NewManager(newMemoryLocal(), new(MockRemoteStore), slog.Default(), cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.StartAutoSync(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled auto sync must return immediately")
	}
}

func TestNewManager_InvalidRetryConfigFallsBack(t *testing.T) {
	cfg := &Config{Enabled: true, Interval: time.Second}
	m := NewManager(newMemoryLocal(), new(MockRemoteStore), slog.Default(), cfg)

	assert.Equal(t, retry.DefaultConfig(), m.config.Retry)
}
