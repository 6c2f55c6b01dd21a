package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow-dev/caseflow/pkg/abilities"
	"github.com/caseflow-dev/caseflow/pkg/api"
)

// Registry is an in-process Dispatcher backed by an explicit
// (server, ability) handler table populated at startup. Unknown keys
// yield a typed "not found" result, never a reflective lookup failure.
type Registry struct {
	// handlers maps server identifier -> ability name -> handler.
	handlers map[string]map[string]abilities.Handler
}

// Ensure Registry implements Dispatcher at compile time.
var _ Dispatcher = (*Registry)(nil)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]map[string]abilities.Handler),
	}
}

// Register adds a provider's abilities under its server identifier.
// Registration happens at startup, before any pipeline runs; the table
// is read-only afterwards. Re-registering a server replaces its table
// and logs a warning.
func (r *Registry) Register(p abilities.Provider) {
	if _, exists := r.handlers[p.Name()]; exists {
		slog.Warn("replacing registered ability provider", "server", p.Name())
	}

	table := make(map[string]abilities.Handler, len(p.Handlers()))
	for name, h := range p.Handlers() {
		table[name] = h
	}
	r.handlers[p.Name()] = table

	slog.Info("registered ability provider",
		"server", p.Name(),
		"abilities", len(table),
	)
}

// Invoke runs the ability handler and returns its updates. All failure
// modes — unknown server, unknown ability, handler error, handler panic
// — degrade to an error-shaped update map; the pipeline never halts on
// a single ability failure.
func (r *Registry) Invoke(ctx context.Context, server, ability string, payload map[string]any) (updates map[string]any, serverUsed string) {
	start := time.Now()

	table, ok := r.handlers[server]
	if !ok {
		observe(server, ability, string(api.DispatchErrorUnknownServer), start)
		return api.ErrorUpdates(api.DispatchErrorUnknownServer,
			fmt.Sprintf("server %q not available", server)), server
	}

	handler, ok := table[ability]
	if !ok {
		observe(server, ability, string(api.DispatchErrorUnknownAbility), start)
		return api.ErrorUpdates(api.DispatchErrorUnknownAbility,
			fmt.Sprintf("ability %q not found on server %q", ability, server)), server
	}

	// Recover from panics inside the handler.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("ability handler panicked",
				"server", server,
				"ability", ability,
				"panic", rec,
			)
			updates = api.ErrorUpdates(api.DispatchErrorPanic,
				fmt.Sprintf("ability %q panicked: %v", ability, rec))
			serverUsed = server
			observe(server, ability, string(api.DispatchErrorPanic), start)
		}
	}()

	result, err := handler(ctx, payload)
	if err != nil {
		observe(server, ability, string(api.DispatchErrorHandler), start)
		return api.ErrorUpdates(api.DispatchErrorHandler, err.Error()), server
	}
	if result == nil {
		result = map[string]any{}
	}

	observe(server, ability, "success", start)
	return result, server
}
