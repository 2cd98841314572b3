// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"shipalloc/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Source configures where warehouse and inventory rows are read from
	Source SourceConfig `json:"source"`

	// Sink configures where the resulting inventory is written
	Sink SinkConfig `json:"sink"`

	// Allocator configures the allocation strategy
	Allocator AllocatorConfig `json:"allocator"`

	// History configures the run-history store
	History HistoryConfig `json:"history"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// SourceConfig selects the input medium for warehouse, inventory and
// ship-inventory rows
type SourceConfig struct {
	// Kind is the source kind (csv, postgres)
	Kind string `json:"kind"`

	// WarehousePath is the warehouse capacity CSV file
	WarehousePath string `json:"warehouse_path,omitempty"`

	// InventoryPath is the current inventory CSV file
	InventoryPath string `json:"inventory_path,omitempty"`

	// ShipPath is the incoming ship inventory CSV file
	ShipPath string `json:"ship_path,omitempty"`

	// DatabaseURLEnv names the environment variable holding the Postgres DSN
	DatabaseURLEnv string `json:"database_url_env,omitempty"`
}

// SinkConfig selects the output medium for the allocated inventory
type SinkConfig struct {
	// Kind is the sink kind (csv, postgres)
	Kind string `json:"kind"`

	// OutputPath is the CSV output file
	OutputPath string `json:"output_path,omitempty"`

	// DatabaseURLEnv names the environment variable holding the Postgres DSN
	DatabaseURLEnv string `json:"database_url_env,omitempty"`
}

// AllocatorConfig selects and tunes the allocation strategy
type AllocatorConfig struct {
	// Strategy is the registered strategy name
	Strategy string `json:"strategy"`

	// Threshold is the ideal fill ratio in [0,1] for threshold-based strategies
	Threshold string `json:"threshold"`
}

// HistoryConfig configures the run-history store
type HistoryConfig struct {
	// Enabled turns run-history persistence on
	Enabled bool `json:"enabled"`

	// Backend is the history backend (memory, file)
	Backend string `json:"backend"`

	// Directory is the file backend directory
	Directory string `json:"directory,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	historyDir := filepath.Join(homeDir, ".shipalloc", "history")

	return &Config{
		Version: "1.0",
		Source: SourceConfig{
			Kind:           "csv",
			WarehousePath:  "warehouses.csv",
			InventoryPath:  "inventory.csv",
			ShipPath:       "ship.csv",
			DatabaseURLEnv: "DATABASE_URL",
		},
		Sink: SinkConfig{
			Kind:           "csv",
			OutputPath:     "inventory_out.csv",
			DatabaseURLEnv: "DATABASE_URL",
		},
		Allocator: AllocatorConfig{
			Strategy:  "first_available",
			Threshold: "0.9",
		},
		History: HistoryConfig{
			Enabled:   false,
			Backend:   "file",
			Directory: historyDir,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadEnv loads a .env file if one is present. Missing files are not an
// error; database DSNs stay configurable purely through the environment.
func LoadEnv() {
	_ = godotenv.Load()
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set replaces the global configuration
func Set(config *Config) {
	globalConfig = config
}
