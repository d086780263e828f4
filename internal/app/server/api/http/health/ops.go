package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "drawsync-health",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Состояние демона",
		Description: "Локальная реплика доступна всегда; поле remote показывает доступность облачного хранилища",
		Tags:        []string{"health", "drawsync"},
		Middlewares: h.middleware,
	}
}
