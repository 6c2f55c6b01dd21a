package config

import "fmt"

// Validate checks the configuration for invalid or inconsistent values.
// The routing document itself is advisory and is not validated against
// the pipeline's stage set: unmapped pairs fall back to the default
// server at resolution time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Pipeline.DecideThreshold < 0 {
		return fmt.Errorf("pipeline.decide_threshold must not be negative, got %d", c.Pipeline.DecideThreshold)
	}
	if c.Pipeline.DefaultServer == "" {
		return fmt.Errorf("pipeline.default_server must not be empty")
	}

	switch c.Dispatch.Mode {
	case "local":
	case "mcp":
		if len(c.Dispatch.Servers) == 0 {
			return fmt.Errorf("dispatch.mode is %q but dispatch.servers is empty", c.Dispatch.Mode)
		}
		for i, s := range c.Dispatch.Servers {
			if s.Name == "" {
				return fmt.Errorf("dispatch.servers[%d].name must not be empty", i)
			}
			if s.URL == "" {
				return fmt.Errorf("dispatch.servers[%d].url must not be empty", i)
			}
		}
	default:
		return fmt.Errorf("dispatch.mode must be \"local\" or \"mcp\", got %q", c.Dispatch.Mode)
	}

	switch c.Storage.Type {
	case "memory", "none":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			return fmt.Errorf("storage.type is \"postgres\" but no DSN is configured")
		}
	default:
		return fmt.Errorf("storage.type must be \"memory\", \"postgres\" or \"none\", got %q", c.Storage.Type)
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			return fmt.Errorf("auth.type is \"apikey\" but auth.api_keys is empty")
		}
	case "jwt":
		if c.Auth.JWT.JWKSURL == "" {
			return fmt.Errorf("auth.type is \"jwt\" but auth.jwt.jwks_url is empty")
		}
	default:
		return fmt.Errorf("auth.type must be \"none\", \"apikey\" or \"jwt\", got %q", c.Auth.Type)
	}

	return nil
}
