package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fire-incident-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())

	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge())
	assert.Zero(t, cfg.Session.RecheckInterval(), "timer recheck defaults to off")
	assert.Equal(t, "/login", cfg.Session.LoginPath)
	assert.Equal(t, "fw_context", cfg.Session.ContextCookie)
	assert.Equal(t, "session:cred:", cfg.Session.CredentialKeyPrefix)
	assert.Equal(t, "session:revoked", cfg.Session.RevocationChannelName)

	assert.Equal(t, "postgres", cfg.Incidents.Backend)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("SESSION_MAX_AGE_HOURS", "48")
	t.Setenv("SESSION_RECHECK_INTERVAL_SECONDS", "60")
	t.Setenv("INCIDENTS_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.App.Addr())
	assert.Equal(t, 48*time.Hour, cfg.Session.MaxAge())
	assert.Equal(t, time.Minute, cfg.Session.RecheckInterval())
	assert.Equal(t, "redis", cfg.Incidents.Backend)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("SOME_FLAG", "garbage")
	assert.True(t, getEnvAsBool("SOME_FLAG", true), "unparseable value falls back")

	t.Setenv("SOME_FLAG", "false")
	assert.False(t, getEnvAsBool("SOME_FLAG", true))
}
