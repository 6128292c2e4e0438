package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/auction"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(ConfigPaths{})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.State.Backend)
	assert.Equal(t, uint64(250), cfg.Marketplace.FeeBps)
	assert.Equal(t, auction.RefundStrict, cfg.Marketplace.Refunds())
	assert.Equal(t, "127.0.0.1:5005", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.QuoteCacheTTL)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "sqlite", cfg.Events.Driver)
	assert.Equal(t, 256, cfg.Events.QueueSize)
	assert.Empty(t, cfg.GetConfigPath())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nftmarketd.toml", `
[log]
level = "debug"

[state]
backend = "pebble"
path = "/tmp/nftm"

[events]
enabled = true
driver = "postgres"
host = "db.internal"
port = 5433
database = "market"
username = "svc"
max_open_conns = 8
max_idle_conns = 4

[marketplace]
fee_bps = 500
refund_policy = "lenient"

[server]
listen = "0.0.0.0:8080"
quote_cache_ttl = "1m"
`)

	cfg, err := LoadConfig(ConfigPaths{Main: path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.GetConfigPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pebble", cfg.State.Backend)
	assert.Equal(t, "/tmp/nftm", cfg.State.Path)
	assert.Equal(t, "postgres", cfg.Events.Driver)
	assert.Equal(t, "db.internal", cfg.Events.Host)
	assert.Equal(t, 5433, cfg.Events.Port)
	assert.Equal(t, 8, cfg.Events.MaxOpenConns)
	assert.Equal(t, uint64(500), cfg.Marketplace.FeeBps)
	assert.Equal(t, auction.RefundLenient, cfg.Marketplace.Refunds())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, time.Minute, cfg.Server.QuoteCacheTTL)
	// untouched keys keep defaults
	assert.Equal(t, "deployer", cfg.Marketplace.Deployer)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(ConfigPaths{Main: filepath.Join(t.TempDir(), "missing.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NFTMARKET_MARKETPLACE_FEE_BPS", "100")
	t.Setenv("NFTMARKET_SERVER_LISTEN", "127.0.0.1:9999")

	cfg, err := LoadConfig(ConfigPaths{})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cfg.Marketplace.FeeBps)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "NFTMARKET_LOG_LEVEL=warn\n")
	// godotenv exports into the process environment; t.Setenv restores it.
	t.Setenv("NFTMARKET_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("NFTMARKET_LOG_LEVEL"))

	cfg, err := LoadConfig(ConfigPaths{Env: env})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigMissingEnvFileIgnored(t *testing.T) {
	_, err := LoadConfig(ConfigPaths{Env: filepath.Join(t.TempDir(), ".env")})
	require.NoError(t, err)
}

func TestValidateConfig(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := LoadConfig(ConfigPaths{})
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"unknown backend", func(c *Config) { c.State.Backend = "bolt" }, "unknown state backend"},
		{"pebble without path", func(c *Config) { c.State.Backend = "pebble"; c.State.Path = "" }, "state.path is required"},
		{"fee too high", func(c *Config) { c.Marketplace.FeeBps = 1001 }, "exceeds"},
		{"bad refund policy", func(c *Config) { c.Marketplace.RefundPolicy = "sometimes" }, "unknown refund policy"},
		{"empty deployer", func(c *Config) { c.Marketplace.Deployer = "" }, "required"},
		{"bad listen", func(c *Config) { c.Server.Listen = "nowhere" }, "invalid listen address"},
		{"zero timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "timeouts must be positive"},
		{"bad events driver", func(c *Config) { c.Events.Driver = "mysql" }, "events config"},
		{"negative probe cache", func(c *Config) { c.Chain.ProbeCacheSize = -1 }, "probe_cache_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("disabled events skip validation", func(t *testing.T) {
		cfg := base(t)
		cfg.Events.Enabled = false
		cfg.Events.Driver = "mysql"
		assert.NoError(t, ValidateConfig(cfg))
	})
}

func TestGenesisLoad(t *testing.T) {
	var empty GenesisConfig
	g, err := empty.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, g.Accounts)

	missing := GenesisConfig{File: filepath.Join(t.TempDir(), "genesis.json")}
	_, err = missing.Load()
	assert.Error(t, err)
}
