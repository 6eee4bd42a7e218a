package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "SERVER_PORT", "DATABASE_URL", "LOG_FILE", "LOG_LEVEL",
		"BATCH_SIZE", "MAX_IDS", "RATE_LIMIT_INTERVAL", "ITEM_LATENCY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, 3, cfg.BatchSize)
	assert.Equal(t, 1000, cfg.MaxIDs)
	assert.Equal(t, int64(1_000_000_007), cfg.MaxItemID)
	assert.Equal(t, 5*time.Second, cfg.RateLimitInterval)
	assert.Equal(t, time.Second, cfg.ItemLatency)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server_port: "9090"
batch_size: 5
rate_limit_interval: 2s
item_latency: 250ms
log_level: debug
database_url: postgres://file/db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("RATE_LIMIT_INTERVAL", "1500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.ServerPort, "env overrides file")
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimitInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.ItemLatency)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "postgres://file/db", cfg.DatabaseURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("BATCH_SIZE", "zero")
	_, err := Load()
	assert.ErrorContains(t, err, "BATCH_SIZE")

	t.Setenv("BATCH_SIZE", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "batch_size must be positive")

	t.Setenv("BATCH_SIZE", "")
	t.Setenv("RATE_LIMIT_INTERVAL", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "RATE_LIMIT_INTERVAL")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "read config file")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("batch completed", "job_id", "abc")

	assert.Contains(t, stderr.String(), "batch completed")
	assert.NotContains(t, stderr.String(), "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "batch completed", entry["msg"])
	assert.Equal(t, "abc", entry["job_id"])
}

func TestSetupLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingestor.log")

	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
