package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 3, cfg.Verifier.MaxConcurrent)
	require.True(t, cfg.Verifier.FailOpen)
	require.Equal(t, 4, cfg.Breaker.FailureThreshold)
	require.Equal(t, 60*time.Second, cfg.Breaker.FailureWindow)
	require.Equal(t, 8*time.Second, cfg.Sources["spotify"].Timeout)
	require.InDelta(t, 1.0, cfg.Sources["spotify"].Reliability, 0.001)
}

func TestLoadTTLOrdering(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Greater(t, cfg.Cache.TakenTTL, cfg.Cache.AvailableTTL)
	require.Greater(t, cfg.Cache.AvailableTTL, cfg.Cache.UncertainTTL)
	require.GreaterOrEqual(t, cfg.Cache.UncertainTTL, time.Duration(0))
	require.Greater(t, cfg.Cache.FamousTTL, cfg.Cache.TakenTTL)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("verifier:\n  max_concurrent: 5\n  fail_open: false\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Verifier.MaxConcurrent)
	require.False(t, cfg.Verifier.FailOpen)
}

func TestValidateRejectsBadTTLOrdering(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Cache.TakenTTL = cfg.Cache.AvailableTTL
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroConcurrency(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Verifier.MaxConcurrent = 0
	require.Error(t, Validate(cfg))
}
