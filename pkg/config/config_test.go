package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.DecideThreshold != 90 {
		t.Errorf("default threshold = %d, want 90", cfg.Pipeline.DecideThreshold)
	}
	if cfg.Pipeline.DefaultServer != "COMMON" {
		t.Errorf("default server = %q, want COMMON", cfg.Pipeline.DefaultServer)
	}
	if len(cfg.Pipeline.Stages) != 0 {
		t.Errorf("default stage list should be empty, got %d entries", len(cfg.Pipeline.Stages))
	}
	if cfg.Dispatch.Mode != "local" {
		t.Errorf("default dispatch mode = %q, want local", cfg.Dispatch.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got: %v", err)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
pipeline:
  decide_threshold: 75
  stages:
    - name: INTAKE
      prompt: "Accept the payload."
      abilities:
        - name: accept_payload
          server: COMMON
    - name: UNDERSTAND
      abilities:
        - name: parse_request_text
          server: COMMON
        - name: extract_entities
          server: ATLAS
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Pipeline.DecideThreshold != 75 {
		t.Errorf("threshold = %d, want 75", cfg.Pipeline.DecideThreshold)
	}
	if len(cfg.Pipeline.Stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(cfg.Pipeline.Stages))
	}
	if cfg.Pipeline.Stages[0].Prompt != "Accept the payload." {
		t.Errorf("INTAKE prompt = %q", cfg.Pipeline.Stages[0].Prompt)
	}
	if cfg.Pipeline.Stages[1].Abilities[1].Server != "ATLAS" {
		t.Errorf("extract_entities server = %q, want ATLAS", cfg.Pipeline.Stages[1].Abilities[1].Server)
	}

	// Unset fields keep their defaults.
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %q, want memory default", cfg.Storage.Type)
	}
	if cfg.Pipeline.DefaultServer != "COMMON" {
		t.Errorf("default server = %q, want COMMON default", cfg.Pipeline.DefaultServer)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9090\n")

	t.Setenv("CASEFLOW_PORT", "7070")
	t.Setenv("CASEFLOW_THRESHOLD", "50")
	t.Setenv("CASEFLOW_STORAGE", "none")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Pipeline.DecideThreshold != 50 {
		t.Errorf("threshold = %d, want env override 50", cfg.Pipeline.DecideThreshold)
	}
	if cfg.Storage.Type != "none" {
		t.Errorf("storage type = %q, want none", cfg.Storage.Type)
	}
}

func TestLoad_KeyFileReference(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "apikey")
	if err := os.WriteFile(keyPath, []byte("sk-secret\n"), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	path := writeConfigFile(t, `
auth:
  type: apikey
  api_keys:
    - key_file: `+keyPath+`
      subject: ci
      tier: priority
      tenant: acme
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.APIKeys[0].Key != "sk-secret" {
		t.Errorf("resolved key = %q, want trimmed file content", cfg.Auth.APIKeys[0].Key)
	}
	if cfg.Auth.APIKeys[0].Tier != "priority" {
		t.Errorf("tier = %q, want priority", cfg.Auth.APIKeys[0].Tier)
	}
	if cfg.Auth.APIKeys[0].Tenant != "acme" {
		t.Errorf("tenant = %q, want acme", cfg.Auth.APIKeys[0].Tenant)
	}
}

func TestLoad_AuthBypass(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  bypass:
    - /healthz
    - /internal/metrics
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Auth.Bypass) != 2 || cfg.Auth.Bypass[1] != "/internal/metrics" {
		t.Errorf("bypass = %v, want [/healthz /internal/metrics]", cfg.Auth.Bypass)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"negative threshold", func(c *Config) { c.Pipeline.DecideThreshold = -1 }, true},
		{"empty default server", func(c *Config) { c.Pipeline.DefaultServer = "" }, true},
		{"unknown dispatch mode", func(c *Config) { c.Dispatch.Mode = "carrier-pigeon" }, true},
		{"mcp mode without servers", func(c *Config) { c.Dispatch.Mode = "mcp" }, true},
		{
			"mcp mode with servers",
			func(c *Config) {
				c.Dispatch.Mode = "mcp"
				c.Dispatch.Servers = []MCPServerConfig{{Name: "COMMON", URL: "http://localhost:8002/mcp"}}
			},
			false,
		},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }, true},
		{"apikey without keys", func(c *Config) { c.Auth.Type = "apikey" }, true},
		{"unknown storage", func(c *Config) { c.Storage.Type = "tape" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
