// Package main provides the RiverWatch server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress    string `yaml:"http_address"`    // HTTP API listen address (default: :8080)
	MetricsAddress string `yaml:"metrics_address"` // Prometheus listen address (default: :9090)
}

// DatabaseConfig contains storage settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file path
}

// EngineConfig contains rule engine settings.
type EngineConfig struct {
	// DedupByRuleID switches alert dedup from title-substring matching to
	// strict rule identity.
	DedupByRuleID bool `yaml:"dedup_by_rule_id"`
}

// DispatchConfig contains notification dispatch settings.
type DispatchConfig struct {
	Workers   int             `yaml:"workers"`    // dispatch worker count (default: 4)
	QueueSize int             `yaml:"queue_size"` // dispatch queue capacity (default: 256)
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds dispatches per window.
type RateLimitConfig struct {
	Enabled      bool   `yaml:"enabled"`
	MaxPerWindow int    `yaml:"max_per_window"` // default: 30
	Window       string `yaml:"window"`         // Go duration string (default: 1m)

	// window is the parsed Window, populated by Validate.
	window time.Duration
}

// WindowDuration returns the parsed rate limit window.
func (c *RateLimitConfig) WindowDuration() time.Duration {
	return c.window
}

// SMTPConfig contains the SMTP server settings for email channels.
// Leave host empty to disable email delivery.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	// Defaults always validate; this parses the rate limit window.
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/riverwatch.db"
	}
	if c.Dispatch.Workers == 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.QueueSize == 0 {
		c.Dispatch.QueueSize = 256
	}
	if c.Dispatch.RateLimit.MaxPerWindow == 0 {
		c.Dispatch.RateLimit.MaxPerWindow = 30
	}
	if c.Dispatch.RateLimit.Window == "" {
		c.Dispatch.RateLimit.Window = "1m"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Dispatch.Workers < 0 {
		return fmt.Errorf("dispatch.workers must not be negative")
	}
	window, err := time.ParseDuration(c.Dispatch.RateLimit.Window)
	if err != nil {
		return fmt.Errorf("invalid dispatch.rate_limit.window: %w", err)
	}
	c.Dispatch.RateLimit.window = window
	if c.SMTP.Host != "" {
		if c.SMTP.Port == 0 {
			return fmt.Errorf("smtp.port is required when smtp.host is set")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("smtp.from is required when smtp.host is set")
		}
	}
	return nil
}
