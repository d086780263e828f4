package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
)

const schema = `
	CREATE TABLE IF NOT EXISTS draw_results (
		draw_name       TEXT    NOT NULL,
		draw_date       TEXT    NOT NULL,
		winning_numbers TEXT    NOT NULL,
		machine_numbers TEXT,
		checksum        TEXT    NOT NULL,
		updated_at      INTEGER NOT NULL,
		PRIMARY KEY (draw_name, draw_date)
	);

	CREATE INDEX IF NOT EXISTS idx_draw_results_updated ON draw_results(updated_at);
	CREATE INDEX IF NOT EXISTS idx_draw_results_date ON draw_results(draw_date);

	CREATE TABLE IF NOT EXISTS pending_operations (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT    NOT NULL UNIQUE,
		kind       TEXT    NOT NULL,
		draw_name  TEXT    NOT NULL,
		draw_date  TEXT    NOT NULL,
		payload    TEXT,
		created_at INTEGER NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		attempts   INTEGER NOT NULL DEFAULT 0,
		last_error TEXT    NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS sync_meta (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
`

// Store локальная реплика на SQLite
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New открывает базу по пути path и создает таблицы
func New(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	s := &Store{
		db:  db,
		log: log.With("component", "sqlite_store"),
	}

	if err := s.initTables(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return s, nil
}

func (s *Store) initTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Ping проверяет доступность базы
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// execer общий интерфейс *sql.DB и *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("Ошибка отката транзакции", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
