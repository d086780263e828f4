package draw

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "draws-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/draws",
		Summary:     "Список результатов тиражей",
		Description: "Читает локальную реплику, новые тиражи первыми",
		Tags:        []string{"draws"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "draws-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/draws/{name}/{date}",
		Summary:     "Получить результат тиража",
		Tags:        []string{"draws"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "draws-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/draws",
		Summary:       "Создать результат тиража",
		Description:   "Сохраняет результат локально и ставит операцию в очередь на отправку в облако",
		Tags:          []string{"draws"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "draws-update",
		Method:      http.MethodPut,
		Path:        "/api/v1/draws/{name}/{date}",
		Summary:     "Изменить номера тиража",
		Tags:        []string{"draws"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "draws-delete",
		Method:      http.MethodDelete,
		Path:        "/api/v1/draws/{name}/{date}",
		Summary:     "Удалить результат тиража",
		Tags:        []string{"draws"},
		Middlewares: h.middleware,
	}
}
