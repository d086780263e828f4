package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Статус синхронизации",
		Description: "Возвращает отметку последней синхронизации, очередь отложенных операций и статистику",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) runOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Запустить синхронизацию",
		Description: "Выполняет отправку, загрузку или двусторонний цикл. Если цикл уже идет, вызов пропускается",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
