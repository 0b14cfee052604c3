// Package config loads wafdeck configuration from YAML with environment
// variable overrides. Precedence is flags > environment > file > defaults;
// flags are applied by the CLI layer after Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all wafdeck configuration.
type Config struct {
	// Detection service endpoint
	API APIConfig `yaml:"api"`

	// Dashboard poll cadence
	Poll PollConfig `yaml:"poll"`

	// Regression fixture catalog
	Fixtures FixturesConfig `yaml:"fixtures"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the detection service client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// PollConfig configures the live snapshot refresh.
type PollConfig struct {
	Interval string `yaml:"interval"`
}

// FixturesConfig configures the regression catalog source. When Path is
// empty the built-in catalog is used and Watch is meaningless.
type FixturesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// LoggingConfig configures categorized file logging. Mirrors the section
// read by the logging package at startup.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8001",
			Timeout: "15s",
		},
		Poll: PollConfig{
			Interval: "5s",
		},
		Fixtures: FixturesConfig{
			Path:  "",
			Watch: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadFromWorkspace loads .wafdeck/config.yaml under the given workspace
// root, falling back to defaults when absent.
func LoadFromWorkspace(workspace string) (*Config, error) {
	return Load(filepath.Join(workspace, ".wafdeck", "config.yaml"))
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("WAFDECK_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if timeout := os.Getenv("WAFDECK_TIMEOUT"); timeout != "" {
		c.API.Timeout = timeout
	}
	if interval := os.Getenv("WAFDECK_POLL_INTERVAL"); interval != "" {
		c.Poll.Interval = interval
	}
	if path := os.Getenv("WAFDECK_FIXTURES"); path != "" {
		c.Fixtures.Path = path
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
	}
	if c.Poll.Interval != "" {
		if _, err := time.ParseDuration(c.Poll.Interval); err != nil {
			return fmt.Errorf("poll.interval: %w", err)
		}
	}
	return nil
}

// GetRequestTimeout returns the API request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetPollInterval returns the snapshot poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Poll.Interval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
