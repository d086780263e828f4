package sync

import (
	"time"

	"github.com/google/uuid"

	"drawsync/internal/domain/draw"
	"drawsync/internal/retry"
)

// OpKind вид локальной мутации
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Operation отложенная операция, еще не подтвержденная удаленным хранилищем
type Operation struct {
	ID        string           `json:"id"`
	Kind      OpKind           `json:"kind"`
	Entity    *draw.DrawResult `json:"entity,omitempty"`
	TargetID  draw.ID          `json:"target_id"`
	CreatedAt time.Time        `json:"created_at"`
	Completed bool             `json:"completed"`
	Attempts  int              `json:"attempts"`
	LastError string           `json:"last_error,omitempty"`
}

// NewUpsertOperation создает операцию create/update со снимком сущности
func NewUpsertOperation(kind OpKind, d *draw.DrawResult, now time.Time) *Operation {
	snapshot := d.Clone()
	return &Operation{
		ID:        uuid.NewString(),
		Kind:      kind,
		Entity:    snapshot,
		TargetID:  snapshot.ID(),
		CreatedAt: now,
	}
}

// NewDeleteOperation создает операцию удаления по ключу
func NewDeleteOperation(id draw.ID, now time.Time) *Operation {
	return &Operation{
		ID:        uuid.NewString(),
		Kind:      OpDelete,
		TargetID:  id,
		CreatedAt: now,
	}
}

// EventType тип события ленты изменений
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent изменение, замеченное удаленным хранилищем
type ChangeEvent struct {
	Type      EventType        `json:"type"`
	Entity    *draw.DrawResult `json:"entity,omitempty"`
	DeletedID draw.ID          `json:"deleted_id"`
}

const (
	PhasePush          = "push"
	PhasePull          = "pull"
	PhaseBidirectional = "bidirectional"
)

// OperationFailure неудачная попытка отправить операцию
type OperationFailure struct {
	OperationID string  `json:"operation_id"`
	Kind        OpKind  `json:"kind"`
	DrawID      draw.ID `json:"draw_id"`
	Error       string  `json:"error"`
	Cause       error   `json:"-"`
}

// Result результат одного цикла синхронизации.
// Inserted считает все успешные create/update: upsert не различает вставку и обновление.
// Rejected операции, ранее отклоненные проверкой, в цикле не отправлялись.
// Deferred загруженные записи, не примененные из-за неотправленных локальных операций.
type Result struct {
	Phase      string             `json:"phase"`
	Skipped    bool               `json:"skipped"`
	Inserted   int                `json:"inserted"`
	Deleted    int                `json:"deleted"`
	Downloaded int                `json:"downloaded"`
	Failed     int                `json:"failed"`
	Rejected   int                `json:"rejected"`
	Deferred   int                `json:"deferred"`
	Failures   []OperationFailure `json:"failures,omitempty"`
	Watermark  time.Time          `json:"watermark"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    time.Time          `json:"end_time"`
	Duration   time.Duration      `json:"duration"`
}

func newResult(phase string, start time.Time) *Result {
	return &Result{Phase: phase, StartTime: start}
}

func (r *Result) addFailure(op *Operation, err error) {
	r.Failed++
	r.Failures = append(r.Failures, OperationFailure{
		OperationID: op.ID,
		Kind:        op.Kind,
		DrawID:      op.TargetID,
		Error:       err.Error(),
		Cause:       err,
	})
}

// Err возвращает *PartialSyncFailure, если часть операций не отправлена
func (r *Result) Err() error {
	if r == nil || r.Failed == 0 {
		return nil
	}
	return &PartialSyncFailure{
		Total:    r.Inserted + r.Deleted + r.Failed,
		Failures: r.Failures,
	}
}

// Stats накопленная статистика синхронизаций
type Stats struct {
	TotalSyncs      int       `json:"total_syncs"`
	TotalSkipped    int       `json:"total_skipped"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalInserted   int       `json:"total_inserted"`
	TotalDeleted    int       `json:"total_deleted"`
	TotalDownloaded int       `json:"total_downloaded"`
	TotalFailed     int       `json:"total_failed"`
	AvgSyncDuration float64   `json:"avg_sync_duration"`
}

// Status снимок состояния менеджера
type Status struct {
	InFlight     bool         `json:"in_flight"`
	HasWatermark bool         `json:"has_watermark"`
	Watermark    time.Time    `json:"watermark"`
	Pending      []*Operation `json:"pending"`
	LastResult   *Result      `json:"last_result,omitempty"`
	Stats        Stats        `json:"stats"`
}

// Config конфигурация синхронизации
type Config struct {
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"interval"`
	Retry    retry.Config  `json:"retry"`
}

// DefaultConfig значения по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Enabled:  true,
		Interval: 30 * time.Second,
		Retry:    retry.DefaultConfig(),
	}
}
