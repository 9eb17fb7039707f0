package config_test

import (
	"os"
	"testing"
	"time"

	"stitch/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	os.Setenv("STITCH_ADDR", ":9999")
	os.Setenv("STITCH_DATA_DIR", "/tmp/stitch")
	os.Setenv("STITCH_LOG_LEVEL", "debug")
	os.Setenv("STITCH_BASE_URL", "https://fragments.example.com")
	os.Setenv("STITCH_TRUSTED_ORIGINS", "https://fragments.example.com, https://cdn.example.com")
	os.Setenv("STITCH_REFRESH_INTERVAL", "5m")
	defer func() {
		os.Unsetenv("STITCH_ADDR")
		os.Unsetenv("STITCH_DATA_DIR")
		os.Unsetenv("STITCH_LOG_LEVEL")
		os.Unsetenv("STITCH_BASE_URL")
		os.Unsetenv("STITCH_TRUSTED_ORIGINS")
		os.Unsetenv("STITCH_REFRESH_INTERVAL")
	}()

	cfg := config.Load()
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, "/tmp/stitch", cfg.DataDir)
	require.Contains(t, cfg.DBPath, "/tmp/stitch/stitch.db")
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "https://fragments.example.com", cfg.BaseURL)
	require.Equal(t, []string{"https://fragments.example.com", "https://cdn.example.com"}, cfg.TrustedOrigins)
	require.Equal(t, 5*time.Minute, cfg.RefreshInterval)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("STITCH_ADDR")
	os.Unsetenv("STITCH_DATA_DIR")
	os.Unsetenv("STITCH_DB_PATH")
	os.Unsetenv("STITCH_LOG_LEVEL")
	os.Unsetenv("STITCH_BASE_URL")
	os.Unsetenv("STITCH_REFRESH_INTERVAL")
	os.Unsetenv("STITCH_FETCH_TIMEOUT")

	cfg := config.Load()
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "data", cfg.DataDir)
	require.Contains(t, cfg.DBPath, "stitch.db")
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	require.Equal(t, 20*time.Second, cfg.FetchTimeout)
	require.Nil(t, cfg.TrustedOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	os.Setenv("STITCH_REFRESH_INTERVAL", "not-a-duration")
	defer os.Unsetenv("STITCH_REFRESH_INTERVAL")

	cfg := config.Load()
	require.Equal(t, 30*time.Minute, cfg.RefreshInterval)
}
