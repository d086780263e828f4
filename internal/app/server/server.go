package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"drawsync/internal/app/client"
	"drawsync/internal/app/server/api"
	"drawsync/internal/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server демон синхронизации: HTTP API, автосинхронизация и лента изменений
type Server struct {
	cfg  *config.Config
	app  *client.App
	http *http.Server
	log  *slog.Logger
}

func New(cfg *config.Config, app *client.App, log *slog.Logger) *Server {
	return &Server{
		cfg: cfg,
		app: app,
		http: &http.Server{
			Addr:              cfg.Server.RunAddress,
			Handler:           api.New(app, log),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: log.With("component", "server"),
	}
}

// Run блокируется до отмены ctx или ошибки HTTP сервера
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.app.Start(ctx); err != nil {
		return fmt.Errorf("start sync: %w", err)
	}

	var wg gosync.WaitGroup
	if s.forwardsToRedis() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.app.Forward(ctx); err != nil {
				s.log.Error("Пересылка ленты изменений недоступна", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP сервер запущен", "addr", s.cfg.Server.RunAddress)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	s.log.Info("Остановка сервера...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Ошибка остановки HTTP сервера", "error", err)
	}

	cancel()
	wg.Wait()
	s.app.Shutdown()

	return runErr
}

// forwardsToRedis демон слушает Postgres и раздает уведомления клиентам через Redis
func (s *Server) forwardsToRedis() bool {
	return s.cfg.HasRemote() &&
		s.cfg.ChangeFeed.Driver == config.FeedPostgres &&
		s.cfg.ChangeFeed.RedisURL != ""
}
