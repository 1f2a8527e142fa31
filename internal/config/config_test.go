package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
service: {}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Service.Name != "relay-gw" {
		t.Errorf("service name = %q", cfg.Service.Name)
	}
	if cfg.Service.LogLevel != "INFO" {
		t.Errorf("log level = %q", cfg.Service.LogLevel)
	}
	if cfg.Service.HubCapacity != 256 {
		t.Errorf("hub capacity = %d", cfg.Service.HubCapacity)
	}
	if cfg.State.Path != "relay-gw.db" {
		t.Errorf("state path = %q", cfg.State.Path)
	}
	if cfg.Ingress.Listen != "127.0.0.1:8080" {
		t.Errorf("ingress listen = %q", cfg.Ingress.Listen)
	}
	if cfg.API.Listen != "127.0.0.1:8081" {
		t.Errorf("api listen = %q", cfg.API.Listen)
	}
	if cfg.API.Enabled {
		t.Error("api should be disabled by default")
	}
}

func TestLoadFull(t *testing.T) {
	path := writeFile(t, "config.yaml", `
service:
  name: my-gw
  log_level: DEBUG
  hub_capacity: 32
state:
  path: /tmp/gw.db
ingress:
  listen: 0.0.0.0:9090
  max_body_size: 2048
api:
  enabled: true
  listen: 0.0.0.0:9091
  api_key: secret-key
seed: seed.yaml
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Service.Name != "my-gw" || cfg.Service.LogLevel != "DEBUG" || cfg.Service.HubCapacity != 32 {
		t.Errorf("service = %+v", cfg.Service)
	}
	if cfg.Ingress.Listen != "0.0.0.0:9090" || cfg.Ingress.MaxBodySize != 2048 {
		t.Errorf("ingress = %+v", cfg.Ingress)
	}
	if !cfg.API.Enabled || cfg.API.APIKey != "secret-key" {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Seed != "seed.yaml" {
		t.Errorf("seed = %q", cfg.Seed)
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("RELAY_TEST_API_KEY", "from-env")

	path := writeFile(t, "config.yaml", `
api:
  enabled: true
  api_key: ${RELAY_TEST_API_KEY}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.APIKey != "from-env" {
		t.Errorf("api_key = %q, want env expansion", cfg.API.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"api enabled without key", `
api:
  enabled: true
`, "api.api_key is required"},
		{"shared listen address", `
ingress:
  listen: 127.0.0.1:9000
api:
  listen: 127.0.0.1:9000
`, "cannot share listen address"},
		{"negative body size", `
ingress:
  max_body_size: -1
`, "must not be negative"},
		{"malformed yaml", `
service: [
`, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
