package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig(t *testing.T) {
	config := GetDefaultConfig()

	assert.Equal(t, DriverSQLite, config.DatabaseDriver)
	assert.Equal(t, 5*time.Second, config.UndoWindow)
	assert.True(t, config.RateLimitEnabled)
	assert.Contains(t, config.RateLimitConfigs, "default")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tasks")
	t.Setenv("UNDO_WINDOW", "3s")
	t.Setenv("ACCESS_TOKEN_TTL", "60")
	t.Setenv("ENFORCE_HTTPS", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	config := Load()

	assert.Equal(t, "9000", config.Port)
	assert.Equal(t, DriverPostgres, config.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/tasks", config.DatabaseURL)
	assert.Equal(t, 3*time.Second, config.UndoWindow)
	assert.Equal(t, time.Minute, config.AccessTokenTTL)
	assert.True(t, config.EnforceHTTPS)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("UNDO_WINDOW", "soon")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	config := Load()

	assert.Equal(t, 5*time.Second, config.UndoWindow)
	assert.True(t, config.RateLimitEnabled)
}

func TestLoad_ReleaseMode(t *testing.T) {
	t.Setenv("GIN_MODE", "release")

	config := Load()

	assert.Equal(t, "production", config.Environment)
	assert.True(t, config.EnforceHTTPS)
}
