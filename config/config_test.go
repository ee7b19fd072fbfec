package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/api", cfg.APIBaseURL)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Zero(t, cfg.RevalidateInterval)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "https://api.example.com")
		t.Setenv("STORAGE_BACKEND", "redis")
		t.Setenv("TOKEN_REVALIDATE_INTERVAL", "12h")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
		assert.Equal(t, StorageRedis, cfg.Storage)
		assert.Equal(t, 12*time.Hour, cfg.RevalidateInterval)
	})

	t.Run("unknown storage backend rejected", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "sqlite")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("postgres requires a DSN", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "postgres")

		_, err := Load()
		require.Error(t, err)
	})
}
