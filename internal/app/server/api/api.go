// GET    /api/v1/health               # Состояние сервиса и облака
// GET    /api/v1/sync/status          # Очередь, отметка и статистика
// POST   /api/v1/sync                 # Запустить цикл синхронизации
// GET    /api/v1/draws                # Список результатов из локальной реплики
// POST   /api/v1/draws                # Создать результат (в очередь)
// GET    /api/v1/draws/{name}/{date}  # Получить результат
// PUT    /api/v1/draws/{name}/{date}  # Изменить номера (в очередь)
// DELETE /api/v1/draws/{name}/{date}  # Удалить результат (в очередь)

package api

import (
	drawAPI "drawsync/internal/app/server/api/http/draw"
	healthAPI "drawsync/internal/app/server/api/http/health"
	"drawsync/internal/app/server/api/http/middleware/container"
	"drawsync/internal/app/server/api/http/middleware/logger"
	syncAPI "drawsync/internal/app/server/api/http/sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// Service все, что нужно HTTP слою от приложения
type Service interface {
	healthAPI.Checker
	syncAPI.Syncer
	drawAPI.Service
}

type Handlers struct {
	Health *healthAPI.Handler
	Sync   *syncAPI.Handler
	Draw   *drawAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(service Service, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Drawsync API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(service, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Draw.SetupRoutes(API)

	return mux
}

func handlers(service Service, log *slog.Logger) *Handlers {
	log = log.With("component", "api")
	loggerMW := logger.New(log)
	middlewares := container.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(service, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(service, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	drawHandler := drawAPI.NewHandler(service, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Sync:   syncHandler,
		Draw:   drawHandler,
	}
}
