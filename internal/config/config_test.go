package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "STORAGE", "DATABASE_URL", "BADGER_PATH",
		"NATS_URL", "JWT_SECRET", "FEED_WINDOW", "THREAD_INSERT_ATTEMPTS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, 100, cfg.FeedWindow)
		assert.Equal(t, 3, cfg.ThreadInsertAttempts)
		assert.Equal(t, 10.0, cfg.RateLimitRPS)
		assert.Equal(t, 20, cfg.RateLimitBurst)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("Overrides from environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE", "Badger")
		t.Setenv("BADGER_PATH", "/tmp/tweed")
		t.Setenv("FEED_WINDOW", "50")
		t.Setenv("RATE_LIMIT_RPS", "2.5")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, StorageBadger, cfg.Storage)
		assert.Equal(t, "/tmp/tweed", cfg.BadgerPath)
		assert.Equal(t, 50, cfg.FeedWindow)
		assert.Equal(t, 2.5, cfg.RateLimitRPS)
	})

	t.Run("Postgres requires DATABASE_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE", "postgres")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("Unknown storage", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE", "mongo")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage type")
	})

	t.Run("Production requires JWT_SECRET", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("Malformed number", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FEED_WINDOW", "many")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "FEED_WINDOW")
	})

	t.Run("Non-positive attempts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("THREAD_INSERT_ATTEMPTS", "0")

		_, err := Load()
		assert.Error(t, err)
	})
}
