package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/tablebook/internal/config"
)

func TestDefaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "quorum", c.Storage.Consistency)
	assert.Equal(t, "tablebook", c.Auth.Issuer)
	assert.Equal(t, 15*time.Minute, c.Auth.AccessTTL)
	assert.Equal(t, time.Second, c.Auth.FailureDelay)
	assert.Equal(t, "adminadmin", c.Bootstrap.AdminPassword)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
server:
  addr: ":9090"
storage:
  driver: postgres
  dsn: postgres://localhost/tablebook
auth:
  jwt_secret: filesecret
  access_ttl: 30m
`), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, "postgres://localhost/tablebook", c.Storage.DSN)
	assert.Equal(t, "filesecret", c.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, c.Auth.AccessTTL)
	assert.Equal(t, "info", c.Log.Level, "unset keys keep their defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	t.Setenv("TABLEBOOK_ADDR", ":7070")
	t.Setenv("TABLEBOOK_ADMIN_PASSWORD", "hunter2hunter2")
	t.Setenv("TABLEBOOK_AUTH_FAILURE_DELAY", "250ms")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "hunter2hunter2", c.Bootstrap.AdminPassword)
	assert.Equal(t, 250*time.Millisecond, c.Auth.FailureDelay)
}

func TestUnknownDriverRejected(t *testing.T) {
	t.Setenv("TABLEBOOK_STORAGE_DRIVER", "cassandra")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestPostgresRequiresDSN(t *testing.T) {
	t.Setenv("TABLEBOOK_STORAGE_DRIVER", "postgres")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestRedisRequiresAddr(t *testing.T) {
	t.Setenv("TABLEBOOK_STORAGE_DRIVER", "redis")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
