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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	defaults := NewDefaultConfig()
	assert.Equal(t, defaults.Weather.BaseURL, cfg.Weather.BaseURL)
	assert.Equal(t, defaults.Server.Port, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Weather.TimeoutDuration())
	assert.Equal(t, 10*time.Minute, cfg.Weather.CacheTTLDuration())
	assert.Equal(t, 15*time.Minute, cfg.Weather.RefreshIntervalDuration())
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WSA_SERVER_PORT", "9090")
	t.Setenv("WSA_WEATHER_LANGUAGE", "uk")
	t.Setenv("OPENWEATHERMAP_API_KEY", "test_api_key_123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "uk", cfg.Weather.Language)
	assert.Equal(t, "test_api_key_123", cfg.Weather.APIKey)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Setenv("WSA_WEATHER_API_KEY", "prefixed")
	t.Setenv("OPENWEATHERMAP_API_KEY", "plain")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Weather.APIKey)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
weather:
  timezone: UTC
  cache_ttl: 60
  default_lat: 50.45
  default_lon: 30.52
redis:
  enabled: true
  addr: redis:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Weather.Timezone)
	assert.Equal(t, time.Minute, cfg.Weather.CacheTTLDuration())
	assert.InDelta(t, 50.45, cfg.Weather.DefaultLat, 1e-9)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	// untouched keys keep their defaults
	assert.Equal(t, "onecall:", cfg.Redis.KeyPrefix)

	loc, err := cfg.Weather.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	path := writeConfig(t, "weather:\n  timezone: Mars/Olympus_Mons\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGetConfig_FallsBackToDefaults(t *testing.T) {
	cfg := GetConfig()
	require.NotNil(t, cfg)

	custom := NewDefaultConfig()
	custom.Server.Port = 1234
	SetConfig(custom)
	assert.Equal(t, 1234, GetConfig().Server.Port)
}
