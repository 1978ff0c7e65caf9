// Package config loads the CLI's optional defaults file, grounded on
// DanDo385-go-edu's internal/config (gopkg.in/yaml.v3, file-then-env
// override, a Validate step); forestrie-go-merklelog has no CLI-facing
// config of its own.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's default behavior, overridable by flags.
type Config struct {
	Par       int    `yaml:"par"`
	ChunkSize int    `yaml:"chunksize"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the built-in defaults used when no config file is given.
func Default() Config {
	return Config{Par: 1, ChunkSize: 0, LogLevel: "INFO"}
}

// Load reads a YAML config file, starting from Default and overriding
// only the fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects nonsensical values before they reach the orchestrator.
func (c Config) Validate() error {
	if c.Par < 1 {
		return fmt.Errorf("par must be >= 1, got %d", c.Par)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunksize must be >= 0, got %d", c.ChunkSize)
	}
	return nil
}
