package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	FeedNone     = "none"
	FeedPostgres = "postgres"
	FeedRedis    = "redis"

	envPath          = ".env"
	defaultDataDir   = ".drawsync"
	defaultDBName    = "drawsync.db"
	defaultChannel   = "draw_results_changes"
	defaultMigration = "migrations"
)

type Config struct {
	Env        string
	DataDir    string
	Local      local
	Remote     remote
	Server     server
	Sync       syncing
	Retry      retrying
	ChangeFeed changeFeed
	Logger     logger
}

type local struct {
	DBPath string `env:"LOCAL_DB_PATH"`
}

type remote struct {
	DatabaseURI string `env:"REMOTE_DATABASE_URI"`
	MaxConns    int32  `env:"REMOTE_MAX_CONNS"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type syncing struct {
	Enabled  bool          `env:"SYNC_ENABLED"`
	Interval time.Duration `env:"SYNC_INTERVAL_SECONDS"`
}

type retrying struct {
	MaxRetries   int           `env:"RETRY_MAX_RETRIES"`
	InitialDelay time.Duration `env:"RETRY_INITIAL_DELAY_MS"`
	MaxDelay     time.Duration `env:"RETRY_MAX_DELAY_MS"`
	Multiplier   float64       `env:"RETRY_MULTIPLIER"`
}

type changeFeed struct {
	Driver   string `env:"CHANGEFEED_DRIVER"`
	Channel  string `env:"CHANGEFEED_CHANNEL"`
	RedisURL string `env:"REDIS_URL"`
}

type logger struct {
	File      string `env:"LOG_FILE"`
	MaxSizeMB int    `env:"LOG_MAX_SIZE_MB"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("data_dir", "")
	v.SetDefault("remote_max_conns", 10)
	v.SetDefault("migrations_path", defaultMigration)
	v.SetDefault("run_address", "localhost:8080")
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_interval_seconds", 30)
	v.SetDefault("retry_max_retries", 3)
	v.SetDefault("retry_initial_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 30000)
	v.SetDefault("retry_multiplier", 2.0)
	v.SetDefault("changefeed_driver", FeedNone)
	v.SetDefault("changefeed_channel", defaultChannel)
	v.SetDefault("log_max_size_mb", 100)
}

// Load читает .env, переменные окружения и, если задан, YAML файл конфигурации
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, defaultDataDir, "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
			}
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataDir = filepath.Join(home, defaultDataDir)
	}

	dbPath := v.GetString("local_db_path")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, defaultDBName)
	}

	cfg := &Config{
		Env:     v.GetString("app_env"),
		DataDir: dataDir,
		Local:   local{DBPath: dbPath},
		Remote: remote{
			DatabaseURI: v.GetString("remote_database_uri"),
			MaxConns:    v.GetInt32("remote_max_conns"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: server{RunAddress: v.GetString("run_address")},
		Sync: syncing{
			Enabled:  v.GetBool("sync_enabled"),
			Interval: time.Duration(v.GetInt("sync_interval_seconds")) * time.Second,
		},
		Retry: retrying{
			MaxRetries:   v.GetInt("retry_max_retries"),
			InitialDelay: time.Duration(v.GetInt("retry_initial_delay_ms")) * time.Millisecond,
			MaxDelay:     time.Duration(v.GetInt("retry_max_delay_ms")) * time.Millisecond,
			Multiplier:   v.GetFloat64("retry_multiplier"),
		},
		ChangeFeed: changeFeed{
			Driver:   v.GetString("changefeed_driver"),
			Channel:  v.GetString("changefeed_channel"),
			RedisURL: v.GetString("redis_url"),
		},
		Logger: logger{
			File:      v.GetString("log_file"),
			MaxSizeMB: v.GetInt("log_max_size_mb"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad загружает конфигурацию и паникует при ошибке
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("app_env must be one of local, dev, prod: got %q", c.Env)
	}
	if c.Local.DBPath == "" {
		return errors.New("local_db_path must not be empty")
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return errors.New("sync_interval_seconds must be positive")
	}
	if c.Remote.MaxConns <= 0 {
		return errors.New("remote_max_conns must be positive")
	}

	switch c.ChangeFeed.Driver {
	case FeedNone, FeedPostgres:
	case FeedRedis:
		if c.ChangeFeed.RedisURL == "" {
			return errors.New("redis_url is required for changefeed_driver=redis")
		}
	default:
		return fmt.Errorf("unknown changefeed_driver %q", c.ChangeFeed.Driver)
	}

	return nil
}

// HasRemote проверяет, настроено ли облачное хранилище
func (c *Config) HasRemote() bool {
	return c.Remote.DatabaseURI != ""
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
