package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelhq/relay-gw/internal/mapping"
	"github.com/kestrelhq/relay-gw/internal/signature"
	"github.com/kestrelhq/relay-gw/internal/store"
)

// SeedFile declares workflow definitions and webhooks applied once at
// startup. It exists so a fresh gateway can serve deliveries without a
// round of admin API calls.
type SeedFile struct {
	WorkflowDefinitions []SeedDefinition `yaml:"workflow_definitions"`
	Webhooks            []SeedWebhook    `yaml:"webhooks"`
}

// SeedDefinition is a workflow definition to create if absent.
type SeedDefinition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// SeedWebhook is a webhook to create if absent. Secret may reference an
// environment variable via ${VAR} (expanded by Load).
type SeedWebhook struct {
	ID     string              `yaml:"id"`
	Name   string              `yaml:"name"`
	Source signature.Source    `yaml:"source"`
	Secret string              `yaml:"secret"`
	Status store.WebhookStatus `yaml:"status,omitempty"`
	Config mapping.Config      `yaml:"config"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	expanded := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})

	var seed SeedFile
	if err := yaml.Unmarshal(expanded, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, def := range seed.WorkflowDefinitions {
		if def.Name == "" {
			return nil, fmt.Errorf("workflow_definitions[%d]: name is required", i)
		}
	}
	for i, wh := range seed.Webhooks {
		if wh.Name == "" {
			return nil, fmt.Errorf("webhooks[%d]: name is required", i)
		}
		if !wh.Source.Known() {
			return nil, fmt.Errorf("webhooks[%d] (%s): unknown source %q", i, wh.Name, wh.Source)
		}
		if wh.Secret == "" {
			return nil, fmt.Errorf("webhooks[%d] (%s): secret is required", i, wh.Name)
		}
		if wh.Config.Name == "" {
			wh.Config.Name = wh.Name
			seed.Webhooks[i] = wh
		}
		if err := wh.Config.Validate(); err != nil {
			return nil, fmt.Errorf("webhooks[%d] (%s): %w", i, wh.Name, err)
		}
	}

	return &seed, nil
}
