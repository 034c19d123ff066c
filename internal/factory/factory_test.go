package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/oracle"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "lf.db")

	st, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	assert.NoError(t, st.HealthPing(context.Background()))
}

func TestNewStore_Rejects(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "postgres"
	cfg.PostgresDSN = ""
	_, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.DBDriver = "oracle"
	_, err = NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewOracle(t *testing.T) {
	cfg := config.NewForTesting()
	_, ok := NewOracle(cfg, zerolog.Nop()).(oracle.Static)
	assert.True(t, ok, "no key falls back to static")

	cfg.OracleAPIKey = "k"
	_, ok = NewOracle(cfg, zerolog.Nop()).(*oracle.ChatOracle)
	assert.True(t, ok)
}

func TestNewImages_LocalServesFiles(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.ImageDir = t.TempDir()

	up, files, err := NewImages(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, up)
	assert.NotNil(t, files)
}
