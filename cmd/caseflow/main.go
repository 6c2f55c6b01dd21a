// Command caseflow runs the caseflow gateway: an HTTP API that accepts
// support requests, runs each one through the eleven-stage workflow
// pipeline, and serves the resulting case records.
//
// Configuration is loaded from config.yaml (see -config and the
// CASEFLOW_CONFIG environment variable) with CASEFLOW_* environment
// overrides. Run with defaults for an in-process, memory-backed gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caseflow-dev/caseflow/pkg/abilities/atlas"
	"github.com/caseflow-dev/caseflow/pkg/abilities/common"
	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/auth"
	"github.com/caseflow-dev/caseflow/pkg/auth/apikey"
	"github.com/caseflow-dev/caseflow/pkg/auth/jwt"
	"github.com/caseflow-dev/caseflow/pkg/auth/noop"
	"github.com/caseflow-dev/caseflow/pkg/config"
	"github.com/caseflow-dev/caseflow/pkg/debug"
	"github.com/caseflow-dev/caseflow/pkg/dispatch"
	"github.com/caseflow-dev/caseflow/pkg/observability"
	"github.com/caseflow-dev/caseflow/pkg/pipeline"
	"github.com/caseflow-dev/caseflow/pkg/routing"
	"github.com/caseflow-dev/caseflow/pkg/storage/memory"
	"github.com/caseflow-dev/caseflow/pkg/storage/postgres"
	"github.com/caseflow-dev/caseflow/pkg/transport"
	transporthttp "github.com/caseflow-dev/caseflow/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: discover)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Observability.Debug.Categories, cfg.Observability.Debug.Level)

	table := routing.NewTable(cfg.Pipeline)

	// MCP sessions live as long as their connect context, so the
	// dispatcher gets the background context; only store setup is
	// bounded.
	dispatcher, closeDispatch, err := buildDispatcher(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	defer closeDispatch()

	storeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := buildStore(storeCtx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	engine := pipeline.New(table, dispatcher)

	// Each request runs the full pipeline synchronously and persists the
	// resulting case when storage is configured.
	runner := transport.CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
		rec := engine.Run(ctx, req.Input)
		c := &api.Case{
			ID:        api.NewCaseID(),
			Object:    "case",
			CreatedAt: time.Now().Unix(),
			Escalated: api.EscalationFromRecord(rec).Required,
			Record:    rec,
		}
		if store != nil {
			if err := store.SaveCase(ctx, c); err != nil {
				return nil, err
			}
		}
		return c, nil
	})

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout.Std(), cfg.Server.WriteTimeout.Std()),
	}

	if cfg.Observability.Metrics.Enabled {
		opts = append(opts,
			transporthttp.WithWrapper(observability.MetricsMiddleware),
			transporthttp.WithRoute("GET "+cfg.Observability.Metrics.Path, promhttp.Handler()),
		)
	}

	if authMW := buildAuthMiddleware(cfg); authMW != nil {
		opts = append(opts, transporthttp.WithWrapper(authMW))
	}

	srv := transporthttp.NewServer(runner, store, opts...)

	slog.Info("gateway starting",
		"port", cfg.Server.Port,
		"dispatch", cfg.Dispatch.Mode,
		"storage", cfg.Storage.Type,
		"auth", cfg.Auth.Type,
		"threshold", table.Threshold(),
	)
	return srv.ListenAndServe()
}

// buildDispatcher wires ability invocation: in-process registry for
// "local", connected MCP clients for "mcp".
func buildDispatcher(ctx context.Context, cfg *config.Config) (dispatch.Dispatcher, func(), error) {
	if cfg.Dispatch.Mode == "local" {
		reg := dispatch.NewRegistry()
		reg.Register(common.New())
		reg.Register(atlas.New())
		return reg, func() {}, nil
	}

	clients := make(map[string]*dispatch.MCPClient, len(cfg.Dispatch.Servers))
	for _, sc := range cfg.Dispatch.Servers {
		client := dispatch.NewMCPClient(sc)
		if err := client.Connect(ctx); err != nil {
			for _, c := range clients {
				c.Close()
			}
			return nil, nil, fmt.Errorf("connecting to %s at %s: %w", sc.Name, sc.URL, err)
		}
		slog.Info("connected to ability server", "server", sc.Name, "url", sc.URL)
		clients[sc.Name] = client
	}

	d := dispatch.NewMCPDispatcher(clients)
	return d, func() { d.Close() }, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (transport.CaseStore, error) {
	switch cfg.Storage.Type {
	case "memory":
		slog.Info("storage enabled", "type", "memory", "max_size", cfg.Storage.MaxSize)
		return memory.New(cfg.Storage.MaxSize), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage disabled")
		return nil, nil
	}
}

// buildAuthMiddleware returns the auth wrapper for the configured
// authenticator type, or nil when neither authentication nor rate
// limiting is configured. With auth type "none" and a rate limit set,
// the no-op authenticator admits everyone so the limiter still applies.
func buildAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	limiter := buildRateLimiter(cfg.Auth.RateLimit)

	var authenticator auth.Authenticator
	fallback := auth.Refuse
	switch cfg.Auth.Type {
	case "apikey":
		keys := make([]apikey.Key, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			keys = append(keys, apikey.Key{
				Token:   k.Key,
				Subject: k.Subject,
				Tier:    k.Tier,
				Tenant:  k.Tenant,
			})
		}
		authenticator = apikey.New(keys)
	case "jwt":
		authenticator = jwt.New(jwt.Config{
			Issuer:   cfg.Auth.JWT.Issuer,
			Audience: cfg.Auth.JWT.Audience,
			JWKSURL:  cfg.Auth.JWT.JWKSURL,
		})
	default:
		if limiter == nil {
			return nil
		}
		authenticator = &noop.Authenticator{}
		fallback = auth.Grant
	}

	chain := &auth.Chain{
		Authenticators: []auth.Authenticator{authenticator},
		Fallback:       fallback,
	}

	return auth.Middleware(chain, limiter, bypassEndpoints(cfg))
}

// bypassEndpoints returns the configured bypass list, defaulting to
// the health endpoint plus the metrics endpoint when enabled.
func bypassEndpoints(cfg *config.Config) []string {
	if len(cfg.Auth.Bypass) > 0 {
		return cfg.Auth.Bypass
	}
	bypass := []string{"/healthz"}
	if cfg.Observability.Metrics.Enabled {
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}
	return bypass
}

func buildRateLimiter(rl config.RateLimitConfig) auth.RateLimiter {
	if rl.DefaultRPM <= 0 && len(rl.Tiers) == 0 {
		return nil
	}
	return auth.NewInProcessLimiter(rl.Tiers, rl.DefaultRPM)
}
