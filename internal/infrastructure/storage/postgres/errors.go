package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"drawsync/internal/domain/sync"
)

// Classify приводит ошибку драйвера к RemoteError с видом auth, network или validation
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var remote *sync.RemoteError
	if errors.As(err, &remote) {
		return err
	}

	// Отмена контекста возвращается как есть
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(op, pgErr.Code, err)
	}

	// Таймауты, обрывы соединения и прочие ошибки транспорта считаются временными
	return sync.NewNetworkError(op, err)
}

func classifyCode(op, code string, err error) error {
	switch {
	case strings.HasPrefix(code, "28"), code == "42501":
		return sync.NewAuthError(op, err)
	case strings.HasPrefix(code, "22"), strings.HasPrefix(code, "23"):
		return sync.NewValidationError(op, err)
	default:
		// 08 (соединение), 53 (ресурсы), 57P0x (остановка сервера) и прочее считаются сетевыми
		return sync.NewNetworkError(op, err)
	}
}
