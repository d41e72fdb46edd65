package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-desktop/zenith/internal/weather/providers"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfigDir(), s.ConfigDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 120, s.DefaultInterval)
	assert.Equal(t, time.Hour, s.CacheTTL)
	assert.Equal(t, providers.DefaultBackoff, s.BackoffConfig())
	assert.Equal(t, providers.DefaultOpenMeteoURL, s.WeatherURL)
	assert.Equal(t, filepath.Join(s.ConfigDir, "cache.sqlite"), s.CachePath())
	assert.Empty(t, s.ListenAddr)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZENITH_CONFIG_DIR", dir)
	t.Setenv("ZENITH_INTERVAL", "300")
	t.Setenv("ZENITH_LOG_LEVEL", "DEBUG")
	t.Setenv("ZENITH_BACKOFF", "50ms")
	t.Setenv("ZENITH_LISTEN", "127.0.0.1:8089")

	s, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, dir, s.ConfigDir)
	assert.Equal(t, 300, s.DefaultInterval)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 50*time.Millisecond, s.Backoff)
	assert.Equal(t, "127.0.0.1:8089", s.ListenAddr)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	t.Setenv("ZENITH_INTERVAL", "300")
	v := viper.New()
	v.Set(KeyInterval, 60)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 60, s.DefaultInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		KeyLogLevel:   "verbose",
		KeyInterval:   "0",
		KeyWeatherURL: "not a url",
		KeyMaxRetries: "42",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			v := viper.New()
			v.Set(key, value)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/walls")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "walls"), got)

	got, err = ExpandPath("  /etc/zenith ")
	require.NoError(t, err)
	assert.Equal(t, "/etc/zenith", got)

	_, err = ExpandPath(" ")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ZENITH_TEST_DOTENV=from-file\nZENITH_TEST_PRESET=from-file\n"), 0o644))
	t.Setenv("ZENITH_TEST_PRESET", "from-env")
	t.Setenv("ZENITH_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("ZENITH_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("ZENITH_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("ZENITH_TEST_PRESET"))
}
