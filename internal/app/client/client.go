package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"drawsync/internal/config"
	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
	"drawsync/internal/infrastructure/changefeed"
	"drawsync/internal/infrastructure/migration"
	"drawsync/internal/infrastructure/storage/postgres"
	"drawsync/internal/infrastructure/storage/sqlite"
	"drawsync/internal/retry"
)

const pingTimeout = 5 * time.Second

// App связывает локальную реплику, облачное хранилище и менеджер синхронизации
type App struct {
	config  *config.Config
	log     *slog.Logger
	local   *sqlite.Store
	remote  *postgres.Storage
	manager *sync.Manager
	writer  *sync.Writer
	redis   *redis.Client

	wg     gosync.WaitGroup
	cancel context.CancelFunc
	mu     gosync.Mutex
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории данных: %w", err)
	}

	local, err := sqlite.New(cfg.Local.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
	}

	app := &App{
		config: cfg,
		log:    log.With("component", "app"),
		local:  local,
	}

	var remote sync.RemoteStore = offlineRemote{}
	if cfg.HasRemote() {
		app.remote, err = postgres.New(ctx, cfg.Remote.DatabaseURI, cfg.Remote.MaxConns, log)
		if err != nil {
			local.Close()
			return nil, fmt.Errorf("ошибка инициализации облачного хранилища: %w", err)
		}
		remote = app.remote
	} else {
		app.log.Warn("Облачное хранилище не настроено, работа только с локальной репликой")
	}

	app.manager = sync.NewManager(local, remote, log, syncConfig(cfg))
	app.writer = sync.NewWriter(local, log)

	return app, nil
}

func syncConfig(cfg *config.Config) *sync.Config {
	return &sync.Config{
		Enabled:  cfg.Sync.Enabled,
		Interval: cfg.Sync.Interval,
		Retry: retry.Config{
			MaxRetries:   cfg.Retry.MaxRetries,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
		},
	}
}

func (a *App) Manager() *sync.Manager {
	return a.manager
}

func (a *App) Writer() *sync.Writer {
	return a.writer
}

// Migrate применяет миграции схемы облачного хранилища
func (a *App) Migrate() error {
	if !a.config.HasRemote() {
		return errRemoteNotConfigured
	}
	return migration.NewMigration(a.config, migration.DefaultEngine, a.log).Up()
}

// CheckConnection проверяет доступность облачного хранилища
func (a *App) CheckConnection(ctx context.Context) error {
	if a.remote == nil {
		return errRemoteNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return a.remote.Ping(ctx)
}

// Sync выполняет цикл синхронизации в указанной фазе
func (a *App) Sync(ctx context.Context, phase string) (*sync.Result, error) {
	switch phase {
	case sync.PhasePush:
		return a.manager.SyncToCloud(ctx)
	case sync.PhasePull:
		return a.manager.SyncFromCloud(ctx)
	case sync.PhaseBidirectional, "":
		return a.manager.BidirectionalSync(ctx)
	default:
		return nil, fmt.Errorf("unknown sync phase %q", phase)
	}
}

// Status возвращает состояние синхронизации
func (a *App) Status(ctx context.Context) (*sync.Status, error) {
	return a.manager.Status(ctx)
}

// Get возвращает результат тиража из локальной реплики
func (a *App) Get(ctx context.Context, id draw.ID) (*draw.DrawResult, error) {
	return a.local.Get(ctx, id)
}

// List возвращает результаты из локальной реплики
func (a *App) List(ctx context.Context, filter *draw.Filter) ([]*draw.DrawResult, error) {
	return a.local.GetAll(ctx, filter)
}

// Create сохраняет новый результат локально и ставит его в очередь на отправку
func (a *App) Create(ctx context.Context, d *draw.DrawResult) (*sync.Operation, error) {
	return a.writer.Create(ctx, d)
}

// Update изменяет результат локально и ставит изменение в очередь
func (a *App) Update(ctx context.Context, d *draw.DrawResult) (*sync.Operation, error) {
	return a.writer.Update(ctx, d)
}

// Delete удаляет результат локально и ставит удаление в очередь
func (a *App) Delete(ctx context.Context, id draw.ID) (*sync.Operation, error) {
	return a.writer.Delete(ctx, id)
}

// Start запускает автоматическую синхронизацию и ленту изменений в фоне
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	unsubscribe, err := a.subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}

	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.manager.StartAutoSync(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		unsubscribe()
	}()

	a.log.Info("Клиент запущен",
		"env", a.config.Env,
		"changefeed", a.config.ChangeFeed.Driver,
		"interval", a.config.Sync.Interval,
	)

	return nil
}

// subscribe подключает ленту изменений к локальной реплике
func (a *App) subscribe(ctx context.Context) (func(), error) {
	source, err := a.feedSource(ctx)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return func() {}, nil
	}

	sub := changefeed.NewSubscriber(source, syncConfig(a.config).Retry, a.log)
	return sub.Subscribe(ctx, a.manager.ApplyChange), nil
}

func (a *App) feedSource(ctx context.Context) (changefeed.Source, error) {
	switch a.config.ChangeFeed.Driver {
	case config.FeedPostgres:
		if a.remote == nil {
			return nil, errRemoteNotConfigured
		}
		return changefeed.NewPostgresSource(a.remote.Pool(), a.config.ChangeFeed.Channel), nil
	case config.FeedRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return changefeed.NewRedisSource(client, a.config.ChangeFeed.Channel), nil
	default:
		return nil, nil
	}
}

// Forward пересылает уведомления Postgres подписчикам Redis до отмены ctx
func (a *App) Forward(ctx context.Context) error {
	if a.remote == nil {
		return errRemoteNotConfigured
	}

	client, err := a.redisClient(ctx)
	if err != nil {
		return err
	}

	source := changefeed.NewPostgresSource(a.remote.Pool(), a.config.ChangeFeed.Channel)
	pub := changefeed.NewRedisPublisher(client, a.config.ChangeFeed.Channel)

	a.log.Info("Пересылка ленты изменений в Redis", "channel", a.config.ChangeFeed.Channel)
	changefeed.NewSubscriber(source, syncConfig(a.config).Retry, a.log).Forward(ctx, pub)

	return nil
}

func (a *App) redisClient(ctx context.Context) (*redis.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.redis != nil {
		return a.redis, nil
	}
	if a.config.ChangeFeed.RedisURL == "" {
		return nil, errors.New("redis url is not configured")
	}

	client, err := changefeed.NewRedisClient(ctx, a.config.ChangeFeed.RedisURL)
	if err != nil {
		return nil, err
	}
	a.redis = client

	return client, nil
}

// Shutdown останавливает фоновые задачи и закрывает хранилища
func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")

	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Ошибка закрытия Redis", "error", err)
		}
	}
	if a.remote != nil {
		a.remote.Close()
	}
	if err := a.local.Close(); err != nil {
		a.log.Warn("Ошибка закрытия локального хранилища", "error", err)
	}

	a.log.Info("Клиент завершил работу")
}
