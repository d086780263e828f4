package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

const (
	minConns        = 1
	maxConnLifetime = 10 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

// Storage облачное хранилище результатов тиражей
type Storage struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// New создает пул соединений. Соединения открываются при первом запросе,
// поэтому недоступность облака не мешает работе с локальной репликой.
func New(ctx context.Context, databaseURI string, maxConns int32, log *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(databaseURI)
	if err != nil {
		return nil, fmt.Errorf("parse database uri: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &Storage{
		pool: pool,
		log:  log.With("component", "postgres_store"),
	}, nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping проверяет доступность облачного хранилища
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return Classify("ping", err)
	}
	return nil
}
