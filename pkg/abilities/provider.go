package abilities

import "context"

// Handler executes one ability. The payload is an arbitrary field map;
// the returned map contains only the fields the ability computed, never
// the full case record. A nil payload must be tolerated.
type Handler func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Provider is one backend server: a named set of ability handlers.
type Provider interface {
	// Name returns the server identifier the routing table resolves to
	// (e.g. "COMMON", "ATLAS").
	Name() string

	// Handlers returns the ability name to handler mapping. The returned
	// map must not change after startup.
	Handlers() map[string]Handler
}
