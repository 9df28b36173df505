package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"streamgate/internal/endpoint"
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

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
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

// Overrides converts the endpoint override list to the registry's map form.
func (c *Config) Overrides() map[string]endpoint.Override {
	if len(c.Endpoints) == 0 {
		return nil
	}
	m := make(map[string]endpoint.Override, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		m[ep.Name] = endpoint.Override{
			URL:      ep.URL,
			Symbols:  ep.Symbols,
			Disabled: ep.Disabled,
		}
	}
	return m
}
