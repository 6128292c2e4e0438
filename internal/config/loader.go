package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// NFTMARKET_SERVER_LISTEN.
const EnvPrefix = "NFTMARKET"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (TOML)
// 3. .env file, exported into the process environment
// 4. Environment variables (NFTMARKET_ prefix)
func LoadConfig(paths ConfigPaths) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if paths.Main != "" {
		if err := loadMainConfig(v, paths.Main); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	if err := loadEnvFile(paths.Env); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = paths.Main

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// LoadDefaultConfig loads configuration from default locations.
func LoadDefaultConfig() (*Config, error) {
	return LoadConfig(DefaultConfigPaths())
}

func loadMainConfig(v *viper.Viper, configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// loadEnvFile exports path into the environment. Variables already set
// win. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}
