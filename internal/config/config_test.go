package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8000/", cfg.APIBaseURL)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, "uiren.db", cfg.SessionDBPath)
	require.Equal(t, float64(10), cfg.RequestsPerSec)
	require.Equal(t, 5, cfg.RequestBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.uiren.kz/")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("REQUESTS_PER_SECOND", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.uiren.kz/", cfg.APIBaseURL)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 2.5, cfg.RequestsPerSec)
}

func TestLoadRejectsBadURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("REQUEST_BURST", "many")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.RequestBurst)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
}
