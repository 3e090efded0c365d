// Package common provides shared utilities for Harvest
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Harvest
type Config struct {
	Environment string        `toml:"environment"`
	Harvest     HarvestConfig `toml:"harvest"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// HarvestConfig holds run parameters for the acquisition pipeline.
type HarvestConfig struct {
	Symbols     []string `toml:"symbols"`
	StartDate   string   `toml:"start_date"` // "2006-01-02"; empty = one year back
	EndDate     string   `toml:"end_date"`   // "2006-01-02"; empty = today
	MaxWorkers  int      `toml:"max_workers"`
	JitterMin   string   `toml:"jitter_min"` // politeness delay lower bound
	JitterMax   string   `toml:"jitter_max"` // politeness delay upper bound
	TaskTimeout string   `toml:"task_timeout"`
}

// GetJitterBounds parses and returns the politeness delay bounds.
func (c *HarvestConfig) GetJitterBounds() (time.Duration, time.Duration) {
	min, err := time.ParseDuration(c.JitterMin)
	if err != nil || min < 0 {
		min = 100 * time.Millisecond
	}
	max, err := time.ParseDuration(c.JitterMax)
	if err != nil || max < min {
		max = min + 400*time.Millisecond
	}
	return min, max
}

// GetTaskTimeout parses and returns the per-task fetch timeout.
func (c *HarvestConfig) GetTaskTimeout() time.Duration {
	d, err := time.ParseDuration(c.TaskTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DateRange resolves the configured date range. Empty values default to the
// trailing year ending today.
func (c *HarvestConfig) DateRange() (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	from := now.AddDate(-1, 0, 0)
	to := now

	if c.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", c.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", c.StartDate, err)
		}
		from = parsed
	}
	if c.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", c.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", c.EndDate, err)
		}
		to = parsed
	}
	return from, to, nil
}

// StorageConfig holds path configuration for the artifact store.
type StorageConfig struct {
	Path string `toml:"path"`
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

// GetTimeout parses and returns the HTTP timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Harvest: HarvestConfig{
			MaxWorkers:  5,
			JitterMin:   "100ms",
			JitterMax:   "500ms",
			TaskTimeout: "30s",
		},
		Storage: StorageConfig{
			Path: "data",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
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
	if env := os.Getenv("HARVEST_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("HARVEST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("HARVEST_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if workers := os.Getenv("HARVEST_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Harvest.MaxWorkers = w
		}
	}

	if symbols := os.Getenv("HARVEST_SYMBOLS"); symbols != "" {
		config.Harvest.Symbols = SplitSymbols(symbols)
	}

	if url := os.Getenv("HARVEST_YAHOO_BASE_URL"); url != "" {
		config.Clients.Yahoo.BaseURL = url
	}
}

// SplitSymbols parses a comma-separated symbol list, trimming blanks.
func SplitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			symbols = append(symbols, strings.ToUpper(part))
		}
	}
	return symbols
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
