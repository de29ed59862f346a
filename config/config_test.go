package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "shopctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, _, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Session.RefreshAttempts)
	assert.Equal(t, time.Second, cfg.Session.RefreshDelay)
	assert.Equal(t, "/auth/login", cfg.Session.LoginRoute)
	assert.Equal(t, "@every 5m", cfg.Watch.Schedule)
	assert.Equal(t, "Cửa hàng điện thoại SonDV", cfg.Export.Store.Name)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
client:
  base_url: https://api.sondv.vn
  timeout: 5s
session:
  refresh_attempts: 5
  refresh_delay: 250ms
storage:
  driver: redis
  redis:
    addrs: ["127.0.0.1:6379"]
    key_prefix: "shop:"
events:
  kafka:
    brokers: ["127.0.0.1:9092"]
    topic: phoneshop.audit
`)

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.sondv.vn", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 5, cfg.Session.RefreshAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.RefreshDelay)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, []string{"127.0.0.1:6379"}, cfg.Storage.Redis.Addrs)
	assert.Equal(t, "shop:", cfg.Storage.Redis.KeyPrefix)
	assert.True(t, cfg.Events.Kafka.Enabled())
	assert.Equal(t, "phoneshop.audit", cfg.Events.Kafka.Topic)
}

func TestEnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "client:\n  base_url: https://api.sondv.vn\n")
	t.Setenv("SHOPCTL_CLIENT_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("SHOPCTL_STORAGE_DRIVER", "memory")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Client.BaseURL)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestValidationFails(t *testing.T) {
	path := writeFile(t, t.TempDir(), "storage:\n  driver: floppy\n")

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestReloadRunsCallbacks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "watch:\n  days: 7\n")

	cfg := new(Shopctl)
	calls := 0
	c := New(cfg, WithFile(path), OnChange(func() { calls++ }))
	require.NoError(t, c.Load())
	assert.Equal(t, 7, cfg.Watch.Days)

	writeFile(t, dir, "watch:\n  days: 30\n")
	require.NoError(t, c.Reload())
	assert.Equal(t, 1, calls)
	c.Read(func() { assert.Equal(t, 30, cfg.Watch.Days) })
}

func TestWatchNeedsFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c := New(new(Shopctl), WithViper(viper.New()))
	require.NoError(t, c.Load())
	assert.Error(t, c.Watch())
}
