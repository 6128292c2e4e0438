package eventstore

import (
	"fmt"
	"net/url"
	"time"
)

// Driver names accepted by Config.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains event store connection settings.
type Config struct {
	Driver           string `json:"driver" mapstructure:"driver"`
	ConnectionString string `json:"connection_string" mapstructure:"connection_string"`
	Host             string `json:"host" mapstructure:"host"`
	Port             int    `json:"port" mapstructure:"port"`
	Database         string `json:"database" mapstructure:"database"`
	Username         string `json:"username" mapstructure:"username"`
	Password         string `json:"password" mapstructure:"password"`
	SSLMode          string `json:"ssl_mode" mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`

	// Recorder queue length. Receipts beyond it block the submitting caller.
	QueueSize int `json:"queue_size" mapstructure:"queue_size"`

	EnableWALMode bool `json:"enable_wal_mode" mapstructure:"enable_wal_mode"`
}

// NewConfig creates a Config for an sqlite file in the working directory.
func NewConfig() *Config {
	return SQLiteConfig("nftmarket-events.db")
}

// PostgresConfig creates a PostgreSQL configuration with local defaults.
func PostgresConfig() *Config {
	return &Config{
		Driver:          DriverPostgres,
		Host:            "localhost",
		Port:            5432,
		Database:        "nftmarket",
		Username:        "nftmarket",
		SSLMode:         "prefer",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  10 * time.Second,
		QueueSize:       256,
	}
}

// SQLiteConfig creates an SQLite configuration for dbPath.
func SQLiteConfig(dbPath string) *Config {
	return &Config{
		Driver:         DriverSQLite,
		Database:       dbPath,
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		DefaultTimeout: 10 * time.Second,
		QueueSize:      256,
		EnableWALMode:  true,
	}
}

// Validate checks the configuration and normalises the driver name.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Driver)
	}

	if c.Driver == DriverPostgres && c.ConnectionString == "" {
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return ErrInvalidPort
		}
		if c.Username == "" {
			return ErrMissingUsername
		}
		switch c.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}
	if c.Database == "" && c.ConnectionString == "" {
		return ErrMissingDatabase
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrMaxIdleExceedsMaxOpen
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.QueueSize < 0 {
		return ErrInvalidQueueSize
	}
	return nil
}

// BuildConnectionString returns the DSN handed to database/sql.
func (c *Config) BuildConnectionString() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}

	switch c.Driver {
	case DriverPostgres:
		return c.buildPostgresConnectionString(), nil
	case DriverSQLite:
		return c.buildSQLiteConnectionString(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDriver, c.Driver)
	}
}

func (c *Config) buildPostgresConnectionString() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	params.Set("connect_timeout", "30")
	params.Set("application_name", "nftmarketd")

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	} else {
		u.User = url.User(c.Username)
	}
	return u.String()
}

func (c *Config) buildSQLiteConnectionString() string {
	params := url.Values{}
	if c.EnableWALMode {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	return "file:" + c.Database + "?" + params.Encode()
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String describes the configuration with the password redacted.
func (c *Config) String() string {
	clone := c.Clone()
	if clone.Password != "" {
		clone.Password = "***"
	}
	if clone.ConnectionString != "" {
		clone.ConnectionString = "***"
	}
	dsn, _ := clone.BuildConnectionString()
	return fmt.Sprintf("Config{Driver: %s, Database: %s, Connection: %s}", clone.Driver, clone.Database, dsn)
}
