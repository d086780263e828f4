package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for PostgreSQL driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/exp/slog"

	"drawsync/internal/config"
)

// Migrator подмножество migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine фабрика мигратора
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	cfg    *config.Config
	engine MigrationEngine
	log    *slog.Logger
}

func NewMigration(conf *config.Config, engine MigrationEngine, log *slog.Logger) *Migration {
	return &Migration{
		cfg:    conf,
		engine: engine,
		log:    log.With("component", "migration"),
	}
}

// DefaultEngine создает migrate.Migrate
func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up применяет миграции схемы облачного хранилища
func (mg *Migration) Up() (err error) {
	if mg.cfg.Remote.DatabaseURI == "" {
		return errors.New("remote database uri is not configured")
	}

	m, err := mg.engine("file://"+mg.cfg.Remote.Migrations, mg.cfg.Remote.DatabaseURI)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Debug("Схема облачного хранилища актуальна")
			return nil
		}
		return fmt.Errorf("migration up: %w", err)
	}

	mg.log.Info("Миграции применены", "path", mg.cfg.Remote.Migrations)
	return nil
}
