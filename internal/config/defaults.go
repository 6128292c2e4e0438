package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets every key so environment overrides bind.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.console", true)
	v.SetDefault("log.color", true)

	v.SetDefault("chain.block_gas_limit", 30_000_000)
	v.SetDefault("chain.probe_cache_size", 1024)
	v.SetDefault("chain.manual_clock", false)

	v.SetDefault("state.backend", "memory")
	v.SetDefault("state.path", "data/state")

	v.SetDefault("events.enabled", true)
	v.SetDefault("events.driver", "sqlite")
	v.SetDefault("events.connection_string", "")
	v.SetDefault("events.host", "localhost")
	v.SetDefault("events.port", 5432)
	v.SetDefault("events.database", "data/events.db")
	v.SetDefault("events.username", "")
	v.SetDefault("events.password", "")
	v.SetDefault("events.ssl_mode", "prefer")
	v.SetDefault("events.max_open_conns", 1)
	v.SetDefault("events.max_idle_conns", 1)
	v.SetDefault("events.conn_max_lifetime", time.Hour)
	v.SetDefault("events.default_timeout", 10*time.Second)
	v.SetDefault("events.queue_size", 256)
	v.SetDefault("events.enable_wal_mode", true)

	v.SetDefault("marketplace.deployer", "deployer")
	v.SetDefault("marketplace.fee_receiver", "feeReceiver")
	v.SetDefault("marketplace.fee_bps", 250)
	v.SetDefault("marketplace.refund_policy", "strict")
	v.SetDefault("marketplace.recovery_gas_cap", 200_000)

	v.SetDefault("server.listen", "127.0.0.1:5005")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_grace", 5*time.Second)
	v.SetDefault("server.quote_cache_ttl", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("genesis.file", "")
}
