package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	// Base URL of the ordering backend's REST API.
	APIBaseURL string `env:"API_BASE_URL" env-default:"http://localhost:3000/api"`

	// Storage selects the durable key-value backend.
	Storage string `env:"STORAGE_BACKEND" env-default:"memory"`

	RedisAddr   string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// How long an unchanged (identity, role, token) binding suppresses
	// re-registration. Zero re-sends on every trigger.
	RevalidateInterval time.Duration `env:"TOKEN_REVALIDATE_INTERVAL" env-default:"0"`
}

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	switch cfg.Storage {
	case StorageMemory, StorageRedis, StoragePostgres:
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}
	if cfg.Storage == StoragePostgres && cfg.PostgresDSN == "" {
		return nil, errors.New("POSTGRES_DSN is required with the postgres backend")
	}

	return &cfg, nil
}
