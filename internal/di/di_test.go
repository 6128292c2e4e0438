package di_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/config"
	"github.com/LeJamon/goNFTMarket/internal/di"
)

func testConfig(t *testing.T, events bool) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(config.ConfigPaths{})
	require.NoError(t, err)
	cfg.Log.Console = false
	cfg.Chain.ManualClock = true
	cfg.Events.Enabled = events
	cfg.Events.Database = filepath.Join(t.TempDir(), "events.db")
	return cfg
}

func TestContainerWithoutHistory(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	c, err := di.New(testConfig(t, false))
	require.NoError(t, err)

	w, err := c.World()
	require.NoError(t, err)
	assert.True(t, w.Fresh)
	assert.NotNil(t, w.Clock())

	h, err := c.Host()
	require.NoError(t, err)
	assert.Same(t, h, w.Host)

	store, err := c.EventStore()
	require.NoError(t, err)
	assert.Nil(t, store)

	s, err := c.RPC()
	require.NoError(t, err)
	assert.NotContains(t, s.Methods(), "history_events")

	require.NoError(t, c.Close())
}

func TestContainerWithHistory(t *testing.T) {
	defer goleak.VerifyNone(t)
	defer zap.ReplaceGlobals(zap.NewNop())

	c, err := di.New(testConfig(t, true))
	require.NoError(t, err)

	s, err := c.RPC()
	require.NoError(t, err)
	assert.Contains(t, s.Methods(), "history_events")

	store, err := c.EventStore()
	require.NoError(t, err)
	require.NotNil(t, store)

	require.NoError(t, c.Close())
}

func TestContainerRejectsBadGenesis(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	cfg := testConfig(t, false)
	cfg.Genesis.File = filepath.Join(t.TempDir(), "missing.json")
	c, err := di.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.World()
	assert.Error(t, err)
}
