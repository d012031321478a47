package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "SESSION_STORE", "ENABLE_AUTH", "SESSION_TTL", "MAX_UPLOAD_BYTES"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, StoreMemory, c.SessionStore)
	assert.False(t, c.EnableAuth)
	assert.Equal(t, 12*time.Hour, c.SessionTTL)
	assert.Equal(t, int64(32<<20), c.MaxUploadBytes)
	assert.Equal(t, c.CORSOriginsOffline, c.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	c := FromEnv()
	assert.True(t, c.EnableAuth)
	assert.False(t, c.EnableDevLogin)
	assert.Equal(t, StoreRedis, c.SessionStore)
	assert.Equal(t, 3, c.RedisDB)
	assert.Equal(t, 90*time.Minute, c.SessionTTL)
	assert.Equal(t, int64(32<<20), c.MaxUploadBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SCHOLAROUTE_TEST_KEY=from-file\nSCHOLAROUTE_TEST_SET=file\n"), 0o600))

	t.Setenv("SCHOLAROUTE_TEST_SET", "process")
	t.Cleanup(func() { os.Unsetenv("SCHOLAROUTE_TEST_KEY") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("SCHOLAROUTE_TEST_KEY"))
	assert.Equal(t, "process", os.Getenv("SCHOLAROUTE_TEST_SET"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Config{LogLevel: "warn", LogFormat: "json"}.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
