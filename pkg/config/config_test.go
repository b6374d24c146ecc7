package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Address())
	assert.Equal(t, "dist", cfg.Assets.Root)
	assert.Equal(t, "index.html", cfg.Assets.Entry)
	assert.Equal(t, int64(64<<20), cfg.Assets.CacheMaxBytes)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Compression.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "8085")
	t.Setenv("ASSET_ROOT", " /srv/app ")
	t.Setenv("ASSET_ENTRY", "/shell/app.html")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8085", cfg.Address())
	assert.Equal(t, "/srv/app", cfg.Assets.Root)
	assert.Equal(t, "shell/app.html", cfg.Assets.Entry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
}

func TestLoadCORSNone(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "SERVER_READ_TIMEOUT", value: "soon"},
		{name: "negative cache", key: "ASSET_CACHE_MAX_BYTES", value: "-1"},
		{name: "root entry", key: "ASSET_ENTRY", value: "/"},
		{name: "log format", key: "LOG_FORMAT", value: "xml"},
		{name: "zero shutdown", key: "SERVER_SHUTDOWN_TIMEOUT", value: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRateLimitValidation(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_BURST", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "RATE_LIMIT_BURST")
}

func TestApplyOverrides(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Apply(Overrides{Port: "9000", Root: "build", Entry: "app/../index.html"})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "build", cfg.Assets.Root)
	assert.Equal(t, "index.html", cfg.Assets.Entry)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}
