package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.Session.MaxAge)
	require.Equal(t, "@daily", cfg.Tracking.RollupSchedule)
	require.True(t, cfg.Monitoring.MetricsEnabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9001
  allowed_origins:
    - https://admin.example.org
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
    database: tracking
    username: tracker
    password: secret
auth:
  jwt:
    secret: test-secret
    access_token_ttl: 1h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, []string{"https://admin.example.org"}, cfg.Server.AllowedOrigins)
	require.Equal(t, time.Hour, cfg.Auth.JWT.TTL)

	dbCfg := cfg.DatabaseConfig()
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5433, dbCfg.Port)
	require.Equal(t, "tracking", dbCfg.Name)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ADMINTRACK_SERVER_PORT", "9100")
	t.Setenv("ADMINTRACK_DATABASE_DRIVER", "mysql")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "mysql", cfg.Database.Driver)
}
