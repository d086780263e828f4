package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"drawsync/internal/cursor"
	"drawsync/internal/domain/draw"
	"drawsync/internal/retry"
)

// Manager управляет синхронизацией локальной реплики с облаком.
// Одновременно выполняется не более одного цикла; повторный вызов во время цикла ничего не делает.
type Manager struct {
	local  LocalStore
	remote RemoteStore
	cursor *cursor.Tracker
	log    *slog.Logger
	config *Config
	now    func() time.Time

	mu         gosync.RWMutex
	inFlight   bool
	lastResult *Result
	stats      Stats
}

// NewManager создает менеджер синхронизации
func NewManager(local LocalStore, remote RemoteStore, log *slog.Logger, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig()
	}

	log = log.With("component", "sync_manager")
	if err := config.Retry.Validate(); err != nil {
		log.Warn("Некорректные параметры повторов, используются значения по умолчанию", "error", err)
		config.Retry = retry.DefaultConfig()
	}

	return &Manager{
		local:  local,
		remote: remote,
		cursor: cursor.New(local),
		log:    log,
		config: config,
		now:    time.Now,
	}
}

func (m *Manager) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return false
	}
	m.inFlight = true
	return true
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}

func (m *Manager) skipped(phase string) *Result {
	m.log.Debug("Синхронизация уже выполняется, вызов пропущен", "phase", phase)

	m.mu.Lock()
	m.stats.TotalSkipped++
	m.mu.Unlock()

	now := m.now()
	return &Result{Phase: phase, Skipped: true, StartTime: now, EndTime: now}
}

// SyncToCloud отправляет все отложенные операции в порядке постановки в очередь
func (m *Manager) SyncToCloud(ctx context.Context) (*Result, error) {
	if !m.begin() {
		return m.skipped(PhasePush), nil
	}
	defer m.end()

	res := newResult(PhasePush, m.now())
	err := m.push(ctx, res)
	m.finish(res, err)

	return res, err
}

// SyncFromCloud загружает записи новее отметки и сдвигает отметку после успешной записи всего пакета
func (m *Manager) SyncFromCloud(ctx context.Context) (*Result, error) {
	if !m.begin() {
		return m.skipped(PhasePull), nil
	}
	defer m.end()

	res := newResult(PhasePull, m.now())
	err := m.pull(ctx, res)
	m.finish(res, err)

	return res, err
}

// BidirectionalSync сначала отправляет локальные изменения, затем загружает удаленные.
// Ошибка отправки отменяет загрузку.
func (m *Manager) BidirectionalSync(ctx context.Context) (*Result, error) {
	if !m.begin() {
		return m.skipped(PhaseBidirectional), nil
	}
	defer m.end()

	res := newResult(PhaseBidirectional, m.now())

	if err := m.push(ctx, res); err != nil {
		m.log.Warn("Загрузка пропущена из-за ошибки отправки", "error", err)
		m.finish(res, err)
		return res, err
	}

	pullErr := m.pull(ctx, res)
	partial := res.Err()

	var err error
	switch {
	case pullErr != nil && partial != nil:
		err = errors.Join(pullErr, partial)
	case pullErr != nil:
		err = pullErr
	case partial != nil:
		err = partial
	}

	m.finish(res, err)
	return res, err
}

func (m *Manager) push(ctx context.Context, res *Result) error {
	ops, err := m.local.ListPending(ctx)
	if err != nil {
		m.log.Error("Ошибка чтения очереди операций", "error", err)
		return storageError("list pending", err)
	}

	m.log.Debug("Отправка отложенных операций", "count", len(ops))

	var authErr error
	for _, op := range ops {
		if rejected(op) {
			m.log.Debug("Операция отклонена при проверке и ждет исправления", "op_id", op.ID, "draw", op.TargetID.String())
			res.Rejected++
			continue
		}

		if err := m.pushOne(ctx, op); err != nil {
			level := slog.LevelError
			if IsValidation(err) {
				level = slog.LevelWarn
			}
			m.log.Log(ctx, level, "Ошибка отправки операции",
				"op_id", op.ID,
				"kind", op.Kind,
				"draw", op.TargetID.String(),
				"error", err,
			)
			res.addFailure(op, err)
			if ferr := m.local.RecordPendingFailure(ctx, op.ID, err.Error()); ferr != nil {
				m.log.Warn("Не удалось сохранить ошибку операции", "op_id", op.ID, "error", ferr)
			}
			if authErr == nil && IsAuth(err) {
				authErr = err
			}
			continue
		}

		if err := m.local.CompletePending(ctx, op.ID); err != nil {
			// Удаленная мутация уже применена; повтор upsert/delete по ключу безопасен
			m.log.Error("Ошибка удаления операции из очереди", "op_id", op.ID, "error", err)
			res.addFailure(op, storageError("complete pending", err))
			continue
		}

		if op.Kind == OpDelete {
			res.Deleted++
		} else {
			res.Inserted++
		}
	}

	if authErr != nil {
		return fmt.Errorf("push pending operations: %w", authErr)
	}
	return nil
}

func (m *Manager) pushOne(ctx context.Context, op *Operation) error {
	switch op.Kind {
	case OpCreate, OpUpdate:
		if op.Entity == nil {
			return NewValidationError("validate", ErrMissingSnapshot)
		}
		if err := draw.Validate(op.Entity); err != nil {
			return NewValidationError("validate", err)
		}
		return m.remote.Upsert(ctx, op.Entity)
	case OpDelete:
		return m.remote.DeleteByID(ctx, op.TargetID)
	default:
		return NewValidationError("dispatch", fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind))
	}
}

func (m *Manager) pull(ctx context.Context, res *Result) error {
	since, ok, err := m.cursor.Read(ctx)
	if err != nil {
		m.log.Error("Ошибка чтения отметки синхронизации", "error", err)
		return storageError("read watermark", err)
	}

	filter := &draw.Filter{}
	if ok {
		filter.UpdatedAfter = since
	}
	orderBy := &draw.OrderBy{Field: draw.OrderUpdatedAt, Desc: true}

	rows, err := retry.DoValue(ctx, m.config.Retry,
		func(ctx context.Context) ([]*draw.DrawResult, error) {
			return m.remote.Query(ctx, filter, orderBy)
		},
		retry.WithNotify(func(attempt int, delay time.Duration, err error) {
			m.log.Warn("Повтор запроса к облаку", "attempt", attempt, "delay", delay, "error", err)
		}),
	)
	if err != nil {
		m.log.Error("Ошибка запроса изменений из облака", "since", since, "error", err)
		return fmt.Errorf("query remote changes: %w", err)
	}

	m.log.Debug("Получены изменения из облака", "count", len(rows), "since", since)

	pending, err := m.pendingTargets(ctx)
	if err != nil {
		return err
	}

	for _, d := range rows {
		if _, ok := pending[d.ID()]; ok {
			m.log.Debug("Запись с неотправленными изменениями не перезаписана", "draw", d.ID().String())
			res.Deferred++
			continue
		}
		if err := m.upsertLocal(ctx, d); err != nil {
			m.log.Error("Ошибка записи в локальное хранилище", "draw", d.ID().String(), "error", err)
			return err
		}
		res.Downloaded++
	}

	wm, err := m.cursor.Advance(ctx, res.StartTime)
	if err != nil {
		m.log.Error("Ошибка сохранения отметки синхронизации", "error", err)
		return storageError("advance watermark", err)
	}
	res.Watermark = wm

	return nil
}

// pendingTargets ключи записей, у которых есть неподтвержденные локальные операции
func (m *Manager) pendingTargets(ctx context.Context) (map[draw.ID]struct{}, error) {
	ops, err := m.local.ListPending(ctx)
	if err != nil {
		return nil, storageError("list pending", err)
	}

	targets := make(map[draw.ID]struct{}, len(ops))
	for _, op := range ops {
		targets[op.TargetID] = struct{}{}
	}
	return targets, nil
}

func (m *Manager) upsertLocal(ctx context.Context, d *draw.DrawResult) error {
	if err := m.local.Upsert(ctx, d); err != nil {
		return storageError("upsert", err)
	}
	return nil
}

// ApplyChange применяет событие ленты изменений к локальному хранилищу.
// Отметка синхронизации и флаг выполнения не затрагиваются.
// События по записям с неотправленными локальными операциями пропускаются.
func (m *Manager) ApplyChange(ctx context.Context, ev ChangeEvent) error {
	id := ev.DeletedID
	if ev.Entity != nil {
		id = ev.Entity.ID()
	}

	pending, err := m.pendingTargets(ctx)
	if err != nil {
		return err
	}
	if _, ok := pending[id]; ok {
		m.log.Debug("Событие отложено до отправки локальных изменений", "type", ev.Type, "draw", id.String())
		return nil
	}

	switch ev.Type {
	case EventInsert, EventUpdate:
		if ev.Entity == nil {
			return fmt.Errorf("apply %s event: %w", ev.Type, ErrMissingSnapshot)
		}

		current, err := m.local.Get(ctx, ev.Entity.ID())
		switch {
		case err == nil:
			if draw.Checksum(current) == draw.Checksum(ev.Entity) && !ev.Entity.UpdatedAt.After(current.UpdatedAt) {
				m.log.Debug("Событие не меняет запись", "draw", ev.Entity.ID().String())
				return nil
			}
		case !errors.Is(err, draw.ErrNotFound):
			return storageError("get", err)
		}

		return m.upsertLocal(ctx, ev.Entity)
	case EventDelete:
		if err := m.local.Delete(ctx, ev.DeletedID); err != nil {
			return storageError("delete", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

func (m *Manager) finish(res *Result, err error) {
	res.EndTime = m.now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastResult = res
	m.stats.TotalSyncs++
	m.stats.TotalInserted += res.Inserted
	m.stats.TotalDeleted += res.Deleted
	m.stats.TotalDownloaded += res.Downloaded
	m.stats.TotalFailed += res.Failed

	if err == nil && res.Failed == 0 {
		m.stats.LastSuccessful = res.EndTime
	} else {
		m.stats.LastFailed = res.EndTime
	}

	n := float64(m.stats.TotalSyncs)
	m.stats.AvgSyncDuration = (m.stats.AvgSyncDuration*(n-1) + res.Duration.Seconds()) / n

	if err != nil || res.Failed > 0 {
		m.log.Warn("Синхронизация завершена с ошибками",
			"phase", res.Phase,
			"duration", res.Duration,
			"failed", res.Failed,
			"error", err,
		)
		return
	}

	m.log.Info("Синхронизация успешно завершена",
		"phase", res.Phase,
		"duration", res.Duration,
		"inserted", res.Inserted,
		"deleted", res.Deleted,
		"downloaded", res.Downloaded,
	)
}

// StartAutoSync запускает периодическую двустороннюю синхронизацию до отмены ctx
func (m *Manager) StartAutoSync(ctx context.Context) {
	if !m.config.Enabled || m.config.Interval <= 0 {
		m.log.Info("Автоматическая синхронизация отключена")
		return
	}

	m.log.Info("Запуск автоматической синхронизации", "interval", m.config.Interval)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("Автоматическая синхронизация остановлена")
			return
		case <-ticker.C:
			if _, err := m.BidirectionalSync(ctx); err != nil {
				m.log.Error("Ошибка автоматической синхронизации", "error", err)
			}
		}
	}
}

// Status возвращает текущее состояние синхронизации
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	wm, ok, err := m.cursor.Read(ctx)
	if err != nil {
		return nil, storageError("read watermark", err)
	}

	pending, err := m.local.ListPending(ctx)
	if err != nil {
		return nil, storageError("list pending", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Status{
		InFlight:     m.inFlight,
		HasWatermark: ok,
		Watermark:    wm,
		Pending:      pending,
		LastResult:   m.lastResult,
		Stats:        m.stats,
	}, nil
}

// IsSyncing проверяет, выполняется ли синхронизация
func (m *Manager) IsSyncing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inFlight
}

// GetStats возвращает копию статистики
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// ResetStats сбрасывает статистику синхронизации
func (m *Manager) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = Stats{}
	m.lastResult = nil
}
