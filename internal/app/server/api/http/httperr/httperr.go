package httperr

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
)

// From переводит доменную ошибку в ответ huma с подходящим статусом
func From(err error) error {
	if err == nil {
		return nil
	}

	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, draw.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, draw.ErrAlreadyExists):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, draw.ErrInvalidDraw), errors.Is(err, draw.ErrInvalidID):
		return huma.Error422UnprocessableEntity(err.Error())
	case sync.IsAuth(err):
		return huma.Error401Unauthorized(err.Error())
	case sync.IsNetwork(err):
		return huma.Error503ServiceUnavailable(err.Error())
	case sync.IsValidation(err):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
