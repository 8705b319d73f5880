package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults for evtxctl commands.
type Config struct {
	Granularity   string  `yaml:"granularity"`
	OutputDir     string  `yaml:"output_dir"`
	BaseName      string  `yaml:"base_name"`
	ResyncRecords bool    `yaml:"resync_records"`
	Logging       Logging `yaml:"logging"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Granularity: "chunk",
		OutputDir:   "./out",
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
