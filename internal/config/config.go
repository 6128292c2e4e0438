// Package config loads the nftmarketd configuration from defaults, an
// optional TOML file, a .env file and NFTMARKET_ environment variables.
package config

import (
	"time"

	"github.com/LeJamon/goNFTMarket/internal/storage/eventstore"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

// Config is the complete nftmarketd configuration.
type Config struct {
	Log         LogConfig         `toml:"log" mapstructure:"log"`
	Chain       ChainConfig       `toml:"chain" mapstructure:"chain"`
	State       StateConfig       `toml:"state" mapstructure:"state"`
	Events      EventsConfig      `toml:"events" mapstructure:"events"`
	Marketplace MarketplaceConfig `toml:"marketplace" mapstructure:"marketplace"`
	Server      ServerConfig      `toml:"server" mapstructure:"server"`
	Genesis     GenesisConfig     `toml:"genesis" mapstructure:"genesis"`

	configPath string
}

// LogConfig selects the log level and destinations.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" mapstructure:"level"`
	// File receives JSON logs when set.
	File    string `toml:"file" mapstructure:"file"`
	Console bool   `toml:"console" mapstructure:"console"`
	Color   bool   `toml:"color" mapstructure:"color"`
}

// ChainConfig tunes the execution host.
type ChainConfig struct {
	BlockGasLimit  uint64 `toml:"block_gas_limit" mapstructure:"block_gas_limit"`
	ProbeCacheSize int    `toml:"probe_cache_size" mapstructure:"probe_cache_size"`
	// ManualClock freezes block time at the genesis time; it only moves
	// when a scenario advances it.
	ManualClock bool `toml:"manual_clock" mapstructure:"manual_clock"`
}

// StateConfig selects the world state backend.
type StateConfig struct {
	// Backend is memory, pebble or leveldb.
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`
}

// EventsConfig configures the receipt and event history.
type EventsConfig struct {
	Enabled           bool `toml:"enabled" mapstructure:"enabled"`
	eventstore.Config `mapstructure:",squash"`
}

// MarketplaceConfig holds the marketplace deployment parameters. Accounts
// are names resolved to deterministic keys.
type MarketplaceConfig struct {
	Deployer       string `toml:"deployer" mapstructure:"deployer"`
	FeeReceiver    string `toml:"fee_receiver" mapstructure:"fee_receiver"`
	FeeBps         uint64 `toml:"fee_bps" mapstructure:"fee_bps"`
	RefundPolicy   string `toml:"refund_policy" mapstructure:"refund_policy"`
	RecoveryGasCap uint64 `toml:"recovery_gas_cap" mapstructure:"recovery_gas_cap"`
}

// ServerConfig configures the JSON-RPC read API.
type ServerConfig struct {
	Listen        string        `toml:"listen" mapstructure:"listen"`
	ReadTimeout   time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownGrace time.Duration `toml:"shutdown_grace" mapstructure:"shutdown_grace"`
	QuoteCacheTTL time.Duration `toml:"quote_cache_ttl" mapstructure:"quote_cache_ttl"`
	MaxBodyBytes  int64         `toml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// GenesisConfig points at the genesis JSON. An empty file selects the
// built-in genesis.
type GenesisConfig struct {
	File string `toml:"file" mapstructure:"file"`
}

// ConfigPaths lists the files LoadConfig reads. Empty paths are skipped.
type ConfigPaths struct {
	Main string
	Env  string
}

// DefaultConfigPaths reads nftmarketd.toml and .env from the working
// directory when they exist.
func DefaultConfigPaths() ConfigPaths {
	return ConfigPaths{Main: "", Env: ".env"}
}

// GetConfigPath returns the file the configuration was read from.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Load returns the genesis named by File, or the built-in genesis.
func (c *GenesisConfig) Load() (*world.Genesis, error) {
	if c.File == "" {
		return world.DefaultGenesis(), nil
	}
	return world.LoadGenesis(c.File)
}
