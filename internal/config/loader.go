package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the matching field is empty.
const (
	EnvBitqueryAPIKey = "BITQUERY_API_KEY"
	EnvDBPassword     = "EXPLORER_DB_PASSWORD"
)

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values. An empty path
// yields the defaults alone.
func LoadWithDefaults(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Sources.Blocks.APIKey == "" {
		c.Sources.Blocks.APIKey = os.Getenv(EnvBitqueryAPIKey)
	}
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv(EnvDBPassword)
	}
}
