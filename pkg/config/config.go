// Package config provides unified configuration for the caseflow gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CASEFLOW_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as
// strings like "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all configuration for the caseflow gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Dispatch      DispatchConfig      `yaml:"dispatch"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int      `yaml:"port"`          // default: 8080
	ReadTimeout  Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout Duration `yaml:"write_timeout"` // default: 120s
}

// PipelineConfig holds the stage routing document: which server owns
// which ability per stage, the DECIDE threshold, and per-stage prompts.
type PipelineConfig struct {
	// DecideThreshold is the score below which DECIDE escalates.
	DecideThreshold int `yaml:"decide_threshold"` // default: 90

	// DefaultServer handles abilities with no explicit mapping.
	DefaultServer string `yaml:"default_server"` // default: "COMMON"

	// Stages lists the per-stage ability routing and prompt text.
	// A missing stage resolves every ability to the default server.
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig describes one pipeline stage in the routing document.
type StageConfig struct {
	Name      string          `yaml:"name"`
	Prompt    string          `yaml:"prompt"`
	Abilities []AbilityConfig `yaml:"abilities"`
}

// AbilityConfig maps one ability to the server that owns it.
type AbilityConfig struct {
	Name   string `yaml:"name"`
	Server string `yaml:"server"`
}

// DispatchConfig selects how abilities are invoked.
type DispatchConfig struct {
	// Mode is "local" (in-process ability registry) or "mcp" (remote
	// MCP servers). Default: "local".
	Mode string `yaml:"mode"`

	// Servers lists MCP server connections for mode "mcp". The Name is
	// the routing-table server identifier (e.g. "COMMON", "ATLAS").
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes a single MCP server connection.
type MCPServerConfig struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"` // "sse" or "streamable-http"
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers"`
}

// StorageConfig holds completed-case storage settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`       // "none", "apikey", "jwt", default: "none"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"`   // API key entries for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`        // JWT settings for type=jwt
	RateLimit RateLimitConfig `yaml:"rate_limit"` // per-tier request budgets

	// Bypass lists paths that skip authentication and rate limiting.
	// Empty defaults to the health and metrics endpoints.
	Bypass []string `yaml:"bypass"`
}

// RateLimitConfig holds per-tier requests-per-minute budgets. A zero
// default disables limiting for tiers without an explicit entry.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Tiers      map[string]int `yaml:"tiers"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
	Tier    string `yaml:"tier"`   // rate-limit tier, empty means default
	Tenant  string `yaml:"tenant"` // storage tenant, empty means unscoped
}

// JWTConfig holds JWT/JWKS validation settings.
type JWTConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Debug   DebugConfig   `yaml:"debug"`
}

// DebugConfig holds category-based debug logging settings. The
// CASEFLOW_DEBUG and CASEFLOW_LOG_LEVEL environment variables override
// these at startup.
type DebugConfig struct {
	Categories string `yaml:"categories"` // comma-separated, e.g. "pipeline,dispatch"
	Level      string `yaml:"level"`      // ERROR, WARN, INFO, DEBUG, TRACE
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in. The stage
// list defaults to empty: an unconfigured pipeline still runs, with every
// ability resolving to the default server.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(120 * time.Second),
		},
		Pipeline: PipelineConfig{
			DecideThreshold: 90,
			DefaultServer:   "COMMON",
		},
		Dispatch: DispatchConfig{
			Mode: "local",
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
