package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Checker проверяет доступность облачного хранилища
type Checker interface {
	CheckConnection(ctx context.Context) error
}

type Handler struct {
	checker    Checker
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(checker Checker, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		checker:    checker,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

// healthCheck отвечает OK, пока работает локальная реплика; облако сообщается отдельно
func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	out := &Output{
		Body: Response{
			Status: "OK",
			Remote: "ok",
		},
	}

	if err := h.checker.CheckConnection(ctx); err != nil {
		out.Body.Remote = "unavailable"
		out.Body.Error = err.Error()
	}

	return out, nil
}
