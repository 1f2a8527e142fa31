package config

import (
	"strings"
	"testing"

	"github.com/kestrelhq/relay-gw/internal/signature"
	"github.com/kestrelhq/relay-gw/internal/store"
)

const validSeed = `
workflow_definitions:
  - id: wf-review
    name: Review
    description: review incoming pull requests

webhooks:
  - id: wh-github
    name: github-prs
    source: github
    secret: ${RELAY_TEST_SEED_SECRET}
    status: active
    config:
      name: "review #{{number}}"
      mappings:
        - spec_type_id: spec-pr
          workflow_definition_id: wf-review
          conditions:
            - path: action
              operator: equals
              value: opened
      default_action: skip
`

func TestLoadSeed(t *testing.T) {
	t.Setenv("RELAY_TEST_SEED_SECRET", "hook-secret")
	path := writeFile(t, "seed.yaml", validSeed)

	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}

	if len(seed.WorkflowDefinitions) != 1 || seed.WorkflowDefinitions[0].ID != "wf-review" {
		t.Errorf("definitions = %+v", seed.WorkflowDefinitions)
	}

	if len(seed.Webhooks) != 1 {
		t.Fatalf("webhooks = %+v", seed.Webhooks)
	}
	wh := seed.Webhooks[0]
	if wh.Source != signature.SourceGitHub || wh.Status != store.WebhookActive {
		t.Errorf("webhook = %+v", wh)
	}
	if wh.Secret != "hook-secret" {
		t.Errorf("secret = %q, want env expansion", wh.Secret)
	}
	if len(wh.Config.Mappings) != 1 || wh.Config.Mappings[0].SpecTypeID != "spec-pr" {
		t.Errorf("config = %+v", wh.Config)
	}
}

func TestLoadSeedDefaultsConfigName(t *testing.T) {
	path := writeFile(t, "seed.yaml", `
webhooks:
  - name: plain
    source: generic
    secret: s
    config:
      mappings:
        - spec_type_id: s
          workflow_definition_id: w
`)
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if seed.Webhooks[0].Config.Name != "plain" {
		t.Errorf("config name = %q, want webhook name", seed.Webhooks[0].Config.Name)
	}
}

func TestLoadSeedRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"definition without name", `
workflow_definitions:
  - id: wf-1
`, "name is required"},
		{"webhook without name", `
webhooks:
  - source: github
    secret: s
`, "name is required"},
		{"unknown source", `
webhooks:
  - name: w
    source: gitlab
    secret: s
`, "unknown source"},
		{"missing secret", `
webhooks:
  - name: w
    source: github
`, "secret is required"},
		{"invalid config", `
webhooks:
  - name: w
    source: github
    secret: s
    config:
      name: run
      mappings:
        - spec_type_id: s
          workflow_definition_id: w
          conditions:
            - path: action
              operator: equals
              value: opened
`, "default_action is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "seed.yaml", tt.yaml)
			_, err := LoadSeed(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSeedMissingFile(t *testing.T) {
	if _, err := LoadSeed("/nonexistent/seed.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
