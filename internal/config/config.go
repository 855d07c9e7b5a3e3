// Package config loads esoctl's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the root esoctl configuration, loaded from esoctl.toml.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Import    ImportConfig    `toml:"import"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Events    EventsConfig    `toml:"events"`
}

// StorageConfig controls where per-log stores live and how the SQLite
// connections backing them behave.
type StorageConfig struct {
	LogStoreRoot      string `toml:"log_store_root"`
	BusyTimeoutMs     int    `toml:"busy_timeout_ms"`
	StatementTimeoutS int    `toml:"statement_timeout_s"`
}

// ImportConfig controls how raw logs are ingested.
type ImportConfig struct {
	// MaxUnhandledLogRatio rejects an import whose fraction of
	// unrecognised lines exceeds this value. 0 disables the check.
	MaxUnhandledLogRatio float64 `toml:"max_unhandled_log_ratio"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Protocol string `toml:"protocol"` // noop | otlp
}

// EventsConfig controls cross-process change notifications.
type EventsConfig struct {
	NatsURL string `toml:"nats_url"`
}

// New returns a config populated with esoctl's defaults.
func New() *Config {
	return &Config{
		Storage: StorageConfig{
			LogStoreRoot:      "~/.local/share/esoctl/logdbs",
			BusyTimeoutMs:     5000,
			StatementTimeoutS: 30,
		},
		Import: ImportConfig{
			MaxUnhandledLogRatio: 0.2,
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Protocol: "noop",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file, starting from defaults
// so a partial file only overrides what it names.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from esoctl.toml in the current directory.
// A missing file is not an error; it returns defaults.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, "esoctl.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// ResolvedLogStoreRoot expands a leading "~" in LogStoreRoot to the
// user's home directory.
func (c *Config) ResolvedLogStoreRoot() (string, error) {
	root := c.Storage.LogStoreRoot
	if root == "~" || len(root) >= 2 && root[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if root == "~" {
			return home, nil
		}
		return filepath.Join(home, root[2:]), nil
	}
	return root, nil
}
