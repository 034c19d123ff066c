package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoad_MatchingDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.AcceptThreshold)
	assert.Equal(t, 70, cfg.PersistThreshold)
	assert.Equal(t, 20, cfg.MaxCandidates)
	assert.Equal(t, 20*time.Second, cfg.OracleTimeout())
	assert.Equal(t, "google/gemini-2.5-flash", cfg.OracleModel)
}

func TestConfigLoad_ThresholdEnvOverride(t *testing.T) {
	t.Setenv("LOSTFOUND_ACCEPT_THRESHOLD", "50")
	t.Setenv("LOSTFOUND_PERSIST_THRESHOLD", "80")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.AcceptThreshold)
	assert.Equal(t, 80, cfg.PersistThreshold)
}

func TestConfigLoad_RejectsPersistBelowAccept(t *testing.T) {
	t.Setenv("LOSTFOUND_ACCEPT_THRESHOLD", "75")
	t.Setenv("LOSTFOUND_PERSIST_THRESHOLD", "70")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSIST_THRESHOLD")
}

func TestConfigLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("LOSTFOUND_ACCEPT_THRESHOLD", "101")
	t.Setenv("LOSTFOUND_PERSIST_THRESHOLD", "101")

	_, err := New()
	require.Error(t, err)
}

func TestConfigLoad_RejectsZeroCandidates(t *testing.T) {
	t.Setenv("LOSTFOUND_MAX_CANDIDATES", "0")

	_, err := New()
	require.Error(t, err)
}

func TestDevModeNeverInProduction(t *testing.T) {
	cfg := NewForTesting()
	cfg.DevMode = true
	cfg.Environment = EnvProduction
	assert.False(t, cfg.IsDevMode())

	cfg.Environment = EnvDevelopment
	assert.True(t, cfg.IsDevMode())
}
