package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "POSTGRES_HOST", "REDIS_ADDR", "TOKEN_EXPIRE_TIME", "TURN_TIMEOUT", "LOG_LEVEL", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "mau_actions", cfg.QueueName)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "mau")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_SSLMODE", "")
	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	t.Setenv("TURN_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://mau:secret@db:5432/mau?sslmode=disable", cfg.DatabaseURL)
	assert.Zero(t, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.TurnTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TOKEN_EXPIRE_TIME", "1h")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "1h")
	t.Setenv("LOG_LEVEL", "info")
	for key, value := range map[string]string{
		"HISTORIAN_BATCH_SIZE":    "abc",
		"HISTORIAN_FLUSH_MS":      "1.5",
		"REDIS_DB":                "one",
		"GAME_INACTIVITY_TIMEOUT": "ten minutes",
		"TURN_TIMEOUT":            "30",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
