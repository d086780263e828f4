package sync

import (
	"context"
	"errors"
	"sort"
	gosync "sync"
	"time"

	"github.com/stretchr/testify/mock"

	"drawsync/internal/domain/draw"
)

// memoryLocal локальное хранилище в памяти для тестов менеджера
type memoryLocal struct {
	mu        gosync.Mutex
	draws     map[draw.ID]*draw.DrawResult
	pending   []*Operation
	watermark time.Time
	hasWM     bool

	upsertErr error
	listErr   error
}

func newMemoryLocal() *memoryLocal {
	return &memoryLocal{draws: make(map[draw.ID]*draw.DrawResult)}
}

func (s *memoryLocal) Get(_ context.Context, id draw.ID) (*draw.DrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.draws[id]
	if !ok {
		return nil, draw.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *memoryLocal) GetAll(_ context.Context, _ *draw.Filter) ([]*draw.DrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*draw.DrawResult, 0, len(s.draws))
	for _, d := range s.draws {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (s *memoryLocal) Upsert(_ context.Context, d *draw.DrawResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upsertLocked(d)
	return nil
}

func (s *memoryLocal) upsertLocked(d *draw.DrawResult) {
	if cur, ok := s.draws[d.ID()]; ok && d.UpdatedAt.Before(cur.UpdatedAt) {
		return
	}
	s.draws[d.ID()] = d.Clone()
}

func (s *memoryLocal) Delete(_ context.Context, id draw.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.draws, id)
	return nil
}

func (s *memoryLocal) SaveWithPending(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch op.Kind {
	case OpDelete:
		delete(s.draws, op.TargetID)
	default:
		s.draws[op.Entity.ID()] = op.Entity.Clone()
	}
	cp := *op
	s.pending = append(s.pending, &cp)
	return nil
}

func (s *memoryLocal) EnqueuePending(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *op
	s.pending = append(s.pending, &cp)
	return nil
}

func (s *memoryLocal) ListPending(_ context.Context) ([]*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*Operation, 0, len(s.pending))
	for _, op := range s.pending {
		cp := *op
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryLocal) CompletePending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.pending {
		if op.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return errors.New("pending operation not found")
}

func (s *memoryLocal) RecordPendingFailure(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range s.pending {
		if op.ID == id {
			op.Attempts++
			op.LastError = reason
		}
	}
	return nil
}

func (s *memoryLocal) GetWatermark(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark, s.hasWM, nil
}

func (s *memoryLocal) SetWatermark(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark, s.hasWM = t, true
	return nil
}

// memoryRemote облачное хранилище в памяти; updated_at назначает сервер
type memoryRemote struct {
	mu    gosync.Mutex
	draws map[draw.ID]*draw.DrawResult
	clock func() time.Time
	calls []string
}

func newMemoryRemote(clock func() time.Time) *memoryRemote {
	return &memoryRemote{draws: make(map[draw.ID]*draw.DrawResult), clock: clock}
}

func (r *memoryRemote) Query(_ context.Context, filter *draw.Filter, _ *draw.OrderBy) ([]*draw.DrawResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "query")
	var out []*draw.DrawResult
	for _, d := range r.draws {
		if filter != nil && !filter.UpdatedAfter.IsZero() && !d.UpdatedAt.After(filter.UpdatedAfter) {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryRemote) Upsert(_ context.Context, draws ...*draw.DrawResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range draws {
		r.calls = append(r.calls, "upsert:"+d.ID().String())
		c := d.Clone()
		c.UpdatedAt = r.clock()
		r.draws[c.ID()] = c
	}
	return nil
}

func (r *memoryRemote) DeleteByID(_ context.Context, id draw.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete:"+id.String())
	delete(r.draws, id)
	return nil
}

// MockRemoteStore мок RemoteStore
type MockRemoteStore struct {
	mock.Mock
}

func (m *MockRemoteStore) Query(ctx context.Context, filter *draw.Filter, orderBy *draw.OrderBy) ([]*draw.DrawResult, error) {
	args := m.Called(ctx, filter, orderBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*draw.DrawResult), args.Error(1)
}

func (m *MockRemoteStore) Upsert(ctx context.Context, draws ...*draw.DrawResult) error {
	args := m.Called(ctx, draws)
	return args.Error(0)
}

func (m *MockRemoteStore) DeleteByID(ctx context.Context, id draw.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// tickingClock монотонные часы с шагом в секунду
type tickingClock struct {
	mu  gosync.Mutex
	cur time.Time
}

func newClock(start time.Time) *tickingClock {
	return &tickingClock{cur: start}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// flakyRemote memoryRemote, у которого можно один раз сорвать отправку
type flakyRemote struct {
	*memoryRemote
	upsertErr error
	deleteErr error
}

func (r *flakyRemote) Upsert(ctx context.Context, draws ...*draw.DrawResult) error {
	if err := r.upsertErr; err != nil {
		r.upsertErr = nil
		return err
	}
	return r.memoryRemote.Upsert(ctx, draws...)
}

func (r *flakyRemote) DeleteByID(ctx context.Context, id draw.ID) error {
	if err := r.deleteErr; err != nil {
		r.deleteErr = nil
		return err
	}
	return r.memoryRemote.DeleteByID(ctx, id)
}
