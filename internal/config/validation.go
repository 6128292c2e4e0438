package config

import (
	"fmt"
	"net"

	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// ValidateConfig checks every section.
func ValidateConfig(config *Config) error {
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	if err := config.State.Validate(); err != nil {
		return fmt.Errorf("state config validation failed: %w", err)
	}
	if config.Events.Enabled {
		if err := config.Events.Config.Validate(); err != nil {
			return fmt.Errorf("events config validation failed: %w", err)
		}
	}
	if err := config.Marketplace.Validate(); err != nil {
		return fmt.Errorf("marketplace config validation failed: %w", err)
	}
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if config.Chain.ProbeCacheSize < 0 {
		return fmt.Errorf("chain.probe_cache_size must be >= 0, got %d", config.Chain.ProbeCacheSize)
	}
	return nil
}

// Validate checks the log level.
func (c *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	return nil
}

// Validate checks the backend name and path.
func (c *StateConfig) Validate() error {
	switch c.Backend {
	case state.BackendMemory:
	case state.BackendPebble, state.BackendLevelDB:
		if c.Path == "" {
			return fmt.Errorf("state.path is required for backend %s", c.Backend)
		}
	default:
		return fmt.Errorf("unknown state backend %q", c.Backend)
	}
	return nil
}

// Validate checks the fee and refund settings.
func (c *MarketplaceConfig) Validate() error {
	if c.Deployer == "" || c.FeeReceiver == "" {
		return fmt.Errorf("deployer and fee_receiver are required")
	}
	if c.FeeBps > market.MaxFeeBps {
		return fmt.Errorf("fee_bps %d exceeds %d", c.FeeBps, market.MaxFeeBps)
	}
	if _, err := auction.ParseRefundPolicy(c.RefundPolicy); err != nil {
		return err
	}
	return nil
}

// Refunds returns the parsed refund policy.
func (c *MarketplaceConfig) Refunds() auction.RefundPolicy {
	p, _ := auction.ParseRefundPolicy(c.RefundPolicy)
	return p
}

// Validate checks the listen address and timeouts.
func (c *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("read and write timeouts must be positive")
	}
	if c.QuoteCacheTTL < 0 {
		return fmt.Errorf("quote_cache_ttl must be >= 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}
