package changefeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
)

var ErrMalformedEvent = errors.New("malformed change event")

// notification полезная нагрузка триггера draw_results: {type, record, old}
type notification struct {
	Type   string           `json:"type"`
	Record *draw.DrawResult `json:"record"`
	Old    *draw.DrawResult `json:"old"`
}

// DecodeEvent разбирает уведомление об изменении строки draw_results
func DecodeEvent(payload []byte) (sync.ChangeEvent, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return sync.ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch sync.EventType(strings.ToLower(n.Type)) {
	case sync.EventInsert:
		return upsertEvent(sync.EventInsert, n.Record)
	case sync.EventUpdate:
		return upsertEvent(sync.EventUpdate, n.Record)
	case sync.EventDelete:
		if n.Old == nil || n.Old.DrawName == "" || n.Old.DrawDate == "" {
			return sync.ChangeEvent{}, fmt.Errorf("%w: delete without old row", ErrMalformedEvent)
		}
		return sync.ChangeEvent{Type: sync.EventDelete, DeletedID: n.Old.ID()}, nil
	default:
		return sync.ChangeEvent{}, fmt.Errorf("%w: %q", sync.ErrUnknownEvent, n.Type)
	}
}

func upsertEvent(t sync.EventType, record *draw.DrawResult) (sync.ChangeEvent, error) {
	if record == nil || record.DrawName == "" || record.DrawDate == "" {
		return sync.ChangeEvent{}, fmt.Errorf("%w: %s without record", ErrMalformedEvent, t)
	}
	record.UpdatedAt = record.UpdatedAt.UTC()
	return sync.ChangeEvent{Type: t, Entity: record}, nil
}
