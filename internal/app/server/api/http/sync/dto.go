package sync

import (
	"time"

	"drawsync/internal/domain/sync"
)

type statusOutput struct {
	Body StatusResponse
}

type runInput struct {
	Body RunRequest
}

type runOutput struct {
	Body RunResponse
}

type RunRequest struct {
	Phase string `json:"phase,omitempty" enum:"push,pull,bidirectional" default:"bidirectional" doc:"Фаза синхронизации"`
}

type RunResponse struct {
	Status     string                  `json:"status" example:"Ok" doc:"Ok, Partial или Skipped"`
	Error      string                  `json:"error,omitempty"`
	Phase      string                  `json:"phase"`
	Inserted   int                     `json:"inserted"`
	Deleted    int                     `json:"deleted"`
	Downloaded int                     `json:"downloaded"`
	Failed     int                     `json:"failed"`
	Rejected   int                     `json:"rejected" doc:"Операции, ранее отклоненные проверкой и не отправленные"`
	Deferred   int                     `json:"deferred" doc:"Загруженные записи, отложенные из-за неотправленных локальных изменений"`
	Failures   []sync.OperationFailure `json:"failures,omitempty"`
	Duration   string                  `json:"duration"`
}

type StatusResponse struct {
	Status     string         `json:"status"`
	InFlight   bool           `json:"in_flight"`
	Watermark  *time.Time     `json:"watermark,omitempty" format:"date-time"`
	Pending    []PendingBrief `json:"pending"`
	LastResult *RunResponse   `json:"last_result,omitempty"`
	Stats      sync.Stats     `json:"stats"`
}

type PendingBrief struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	DrawID    string    `json:"draw_id"`
	CreatedAt time.Time `json:"created_at"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
}

func toRunResponse(res *sync.Result) RunResponse {
	out := RunResponse{
		Status:     "Ok",
		Phase:      res.Phase,
		Inserted:   res.Inserted,
		Deleted:    res.Deleted,
		Downloaded: res.Downloaded,
		Failed:     res.Failed,
		Rejected:   res.Rejected,
		Deferred:   res.Deferred,
		Failures:   res.Failures,
		Duration:   res.Duration.String(),
	}

	switch {
	case res.Skipped:
		out.Status = "Skipped"
	case res.Failed > 0:
		out.Status = "Partial"
		out.Error = res.Err().Error()
	}

	return out
}

func toStatusResponse(st *sync.Status) StatusResponse {
	out := StatusResponse{
		Status:   "Ok",
		InFlight: st.InFlight,
		Pending:  make([]PendingBrief, 0, len(st.Pending)),
		Stats:    st.Stats,
	}

	if st.HasWatermark {
		wm := st.Watermark
		out.Watermark = &wm
	}

	for _, op := range st.Pending {
		out.Pending = append(out.Pending, PendingBrief{
			ID:        op.ID,
			Kind:      string(op.Kind),
			DrawID:    op.TargetID.String(),
			CreatedAt: op.CreatedAt,
			Attempts:  op.Attempts,
			LastError: op.LastError,
		})
	}

	if st.LastResult != nil {
		last := toRunResponse(st.LastResult)
		out.LastResult = &last
	}

	return out
}
