package logger

import (
	"io"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"drawsync/internal/config"
	"drawsync/internal/utils/logger/handlers/slogpretty"
)

const (
	fileMaxBackups = 5
	fileMaxAgeDays = 28
)

// New создает логгер в зависимости от окружения
func New(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

// NewWithFile пишет логи в файл с ротацией; пустой путь означает stdout
func NewWithFile(env, path string, maxSizeMB int) *slog.Logger {
	if path == "" {
		return New(env)
	}

	return newLogger(env, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
	})
}

func newLogger(env string, out io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		if out == os.Stdout {
			log = setupPrettySlog()
		} else {
			log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// Discard логгер без вывода
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
