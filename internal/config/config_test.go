package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env: prod
app:
  directories-path: /etc/dropwatch/directories.xml
  stable-wait-seconds: 2
  stability-check-interval-seconds: 0.5
  logfile-path: /var/log/dropwatch/dropwatch.log
  tick-interval: 250ms
  check-workers: 8
  evict-after: 1h
  sweep-existing: true
metrics:
  address: ":9108"
history:
  path: /var/lib/dropwatch/history.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "/etc/dropwatch/directories.xml", cfg.App.DirectoriesPath)
	assert.Equal(t, 2*time.Second, cfg.App.StableWait())
	assert.Equal(t, 500*time.Millisecond, cfg.App.StabilityCheckInterval())
	assert.Equal(t, 250*time.Millisecond, cfg.App.TickInterval)
	assert.Equal(t, 8, cfg.App.CheckWorkers)
	assert.Equal(t, time.Hour, cfg.App.EvictAfter)
	assert.True(t, cfg.App.SweepExisting)
	assert.Equal(t, 14, cfg.App.LogBackups)
	assert.Equal(t, ":9108", cfg.Metrics.Address)
	assert.Equal(t, "/var/lib/dropwatch/history.db", cfg.History.Path)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  directories-path: directories.xml
  stable-wait-seconds: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 3*time.Second, cfg.App.StabilityCheckInterval(), "check interval falls back to stable wait")
	assert.Equal(t, time.Second, cfg.App.TickInterval)
	assert.Equal(t, 4, cfg.App.CheckWorkers)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownGrace)
	assert.Zero(t, cfg.App.EvictAfter)
	assert.False(t, cfg.App.SweepExisting)
	assert.Empty(t, cfg.Metrics.Address)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "Missing directories path",
			body: "app:\n  stable-wait-seconds: 2\n",
		},
		{
			name: "Negative stable wait",
			body: "app:\n  directories-path: d.xml\n  stable-wait-seconds: -1\n",
		},
		{
			name: "Negative check interval",
			body: "app:\n  directories-path: d.xml\n  stability-check-interval-seconds: -2\n",
		},
		{
			name: "Negative eviction",
			body: "app:\n  directories-path: d.xml\n  evict-after: -1m\n",
		},
		{
			name: "Broken yaml",
			body: "app: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "app:\n  directories-path: d.xml\n  stable-wait-seconds: 2\n")
	t.Setenv("STABLE_WAIT_SECONDS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.App.StableWait())
}

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, ResolvePath(""))

	t.Setenv("CONFIG_PATH", "/etc/dropwatch.yaml")
	assert.Equal(t, "/etc/dropwatch.yaml", ResolvePath(""))
	assert.Equal(t, "flag.yaml", ResolvePath("flag.yaml"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{App: App{
		DirectoriesPath:   "d.xml",
		StableWaitSeconds: 2,
		TickInterval:      time.Second,
		CheckWorkers:      1,
	}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.App.StabilityCheckInterval())

	cfg.App.StableWaitSeconds = 0
	cfg.App.StabilityCheckIntervalSeconds = 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.App.StableWaitSeconds = 1
	cfg.App.CheckWorkers = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
