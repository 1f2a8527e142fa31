// Package config loads the relay-gw service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Config represents the complete relay-gw configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	State   StateConfig   `yaml:"state"`
	Ingress IngressConfig `yaml:"ingress"`
	API     APIConfig     `yaml:"api"`
	// Seed optionally points at a YAML file of workflow definitions and
	// webhooks applied once at startup for fresh databases.
	Seed string `yaml:"seed,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	// HubCapacity sizes the in-memory activity feed ring buffer.
	HubCapacity int `yaml:"hub_capacity,omitempty"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// IngressConfig defines the public webhook endpoint settings.
type IngressConfig struct {
	Listen      string `yaml:"listen"`
	MaxBodySize int64  `yaml:"max_body_size,omitempty"`
}

// APIConfig defines admin HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key"`
}

// Load reads and parses configuration from a file. ${VAR} references are
// expanded from the environment before parsing, so secrets never need to
// live in the file itself.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "relay-gw"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Service.HubCapacity <= 0 {
		cfg.Service.HubCapacity = 256
	}
	if cfg.State.Path == "" {
		cfg.State.Path = "relay-gw.db"
	}
	if cfg.Ingress.Listen == "" {
		cfg.Ingress.Listen = "127.0.0.1:8080"
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8081"
	}
}

func validate(cfg *Config) error {
	if cfg.Ingress.MaxBodySize < 0 {
		return fmt.Errorf("ingress.max_body_size must not be negative")
	}
	if cfg.API.Enabled && cfg.API.APIKey == "" {
		return fmt.Errorf("api.api_key is required when the API is enabled")
	}
	if cfg.Ingress.Listen == cfg.API.Listen {
		return fmt.Errorf("ingress and api cannot share listen address %q", cfg.Ingress.Listen)
	}
	return nil
}
