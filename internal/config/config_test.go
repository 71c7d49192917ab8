package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR", "SESSION_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "http")
	t.Setenv("SESSION_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL, "bad values fall back to defaults")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestLoadClient(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://example.test:9000")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAP_ASPECT", "4/3")
	t.Setenv("OVERSIZE", "2")
	t.Setenv("FRAME_RATE", "60")
	t.Setenv("DEBUG", "true")
	t.Setenv("SESSION_FILE", "/tmp/session")

	cfg := LoadClient()

	assert.Equal(t, "http://example.test:9000", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.InDelta(t, 4.0/3.0, cfg.MapAspect, 1e-9)
	assert.Equal(t, 2.0, cfg.Oversize)
	assert.Equal(t, 60, cfg.FrameRate)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/session", cfg.SessionFile)
	assert.Equal(t, time.Second/60, cfg.FrameInterval())
	assert.NoError(t, cfg.Validate())
}

func TestLoadClient_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"relative url", "API_BASE_URL", "localhost", "API_BASE_URL"},
		{"oversize too small", "OVERSIZE", "0.5", "OVERSIZE"},
		{"bad ratio", "MAP_ASPECT", "16/0", "MAP_ASPECT"},
		{"frame rate", "FRAME_RATE", "fast", "FRAME_RATE"},
		{"debug flag", "DEBUG", "maybe", "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			err := LoadClient().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}
