package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"drawsync/internal/app/server/api/http/httperr"
	"drawsync/internal/domain/sync"
)

// Syncer запускает циклы синхронизации и отдает их состояние
type Syncer interface {
	Sync(ctx context.Context, phase string) (*sync.Result, error)
	Status(ctx context.Context) (*sync.Status, error)
}

type Handler struct {
	service    Syncer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Syncer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.statusOp(), h.status)
	huma.Register(api, h.runOp(), h.run)
}

func (h *Handler) status(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	st, err := h.service.Status(ctx)
	if err != nil {
		return nil, httperr.From(err)
	}

	return &statusOutput{Body: toStatusResponse(st)}, nil
}

func (h *Handler) run(ctx context.Context, input *runInput) (*runOutput, error) {
	phase := input.Body.Phase
	if phase == "" {
		phase = sync.PhaseBidirectional
	}

	res, err := h.service.Sync(ctx, phase)
	// Частичный сбой отправки не ошибка запроса: неотправленные операции описаны в ответе
	if _, partial := err.(*sync.PartialSyncFailure); partial && res != nil {
		err = nil
	}
	if err != nil {
		h.log.Warn("Синхронизация по запросу завершилась ошибкой", "phase", phase, "error", err)
		return nil, httperr.From(err)
	}

	return &runOutput{Body: toRunResponse(res)}, nil
}
