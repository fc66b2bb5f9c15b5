// Package config loads engine configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI needs to wire an engine.
type Config struct {
	// DBPath is the SQLite database path. Ignored when PostgresDSN is set.
	DBPath string `yaml:"db_path"`
	// PostgresDSN selects the PostgreSQL backend when non-empty.
	PostgresDSN string `yaml:"postgres_dsn"`

	// AnchorURL and AnchorToken configure the immutable content host. An
	// empty token means anchoring is disabled, which is a valid state.
	AnchorURL   string `yaml:"anchor_url"`
	AnchorToken string `yaml:"anchor_token"`

	// Model overrides the narrative model.
	Model string `yaml:"model"`

	// SnapshotRetentionDays is the ledger retention window.
	// Default: 60, Range: 1-365
	SnapshotRetentionDays int `yaml:"snapshot_retention_days"`

	// StaleWindowDays is how long a profile may go without an update
	// before the staleness detector counts it.
	// Default: 90, Range: 1-365
	StaleWindowDays int `yaml:"stale_window_days"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		DBPath:                ".govaudit/audit.db",
		SnapshotRetentionDays: 60,
		StaleWindowDays:       90,
	}
}

// Load reads the config file at path (missing file is fine), then applies
// environment overrides and validates ranges.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GOVAUDIT_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("GOVAUDIT_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("GOVAUDIT_ANCHOR_URL"); v != "" {
		cfg.AnchorURL = v
	}
	if v := os.Getenv("GOVAUDIT_ANCHOR_TOKEN"); v != "" {
		cfg.AnchorToken = v
	}
	if v := os.Getenv("GOVAUDIT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := envInt("GOVAUDIT_SNAPSHOT_RETENTION_DAYS"); v > 0 {
		cfg.SnapshotRetentionDays = v
	}
	if v := envInt("GOVAUDIT_STALE_WINDOW_DAYS"); v > 0 {
		cfg.StaleWindowDays = v
	}
}

func (c *Config) validate() error {
	if c.SnapshotRetentionDays < 1 || c.SnapshotRetentionDays > 365 {
		return fmt.Errorf("snapshot_retention_days must be in 1-365, got %d", c.SnapshotRetentionDays)
	}
	if c.StaleWindowDays < 1 || c.StaleWindowDays > 365 {
		return fmt.Errorf("stale_window_days must be in 1-365, got %d", c.StaleWindowDays)
	}
	return nil
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
