package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the usmarket server.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Update      UpdateConfig  `toml:"update"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the storage root for per-symbol CSV tables.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo YahooConfig `toml:"yahoo"`
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// UpdateConfig holds update pipeline configuration.
type UpdateConfig struct {
	DefaultStartDate string `toml:"default_start_date"`
	MinInterval      string `toml:"min_interval"`
}

// GetMinInterval parses and returns the minimum gap between remote fetches.
func (c *UpdateConfig) GetMinInterval() time.Duration {
	d, err := time.ParseDuration(c.MinInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// defaultDataDir resolves the platform application-data directory for
// stored symbol tables. On macOS this lands under ~/Library/Application
// Support, on Linux under ~/.config.
func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(base, "us-market-data", "data")
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 4242,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 2,
				Timeout:   "30s",
			},
		},
		Update: UpdateConfig{
			DefaultStartDate: "2015-01-01",
			MinInterval:      "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("USMARKET_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("USMARKET_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("USMARKET_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("USMARKET_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage root override, same variable the original deployments use.
	if dir := os.Getenv("US_STOCK_DATA_DIR"); dir != "" {
		config.Storage.DataDir = dir
	}

	if base := os.Getenv("USMARKET_YAHOO_BASE_URL"); base != "" {
		config.Clients.Yahoo.BaseURL = base
	}

	if iv := os.Getenv("USMARKET_UPDATE_MIN_INTERVAL"); iv != "" {
		config.Update.MinInterval = iv
	}
}
