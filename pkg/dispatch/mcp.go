package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow-dev/caseflow/pkg/api"
)

// MCPDispatcher routes ability invocations to remote MCP servers keyed
// by server identifier. Routing is by identifier, not by tool discovery:
// the routing table already names the server that owns each ability.
type MCPDispatcher struct {
	// clients maps server identifier to a connected MCPClient.
	clients map[string]*MCPClient
}

// Ensure MCPDispatcher implements Dispatcher at compile time.
var _ Dispatcher = (*MCPDispatcher)(nil)

// NewMCPDispatcher creates a dispatcher over the given connected clients.
func NewMCPDispatcher(clients map[string]*MCPClient) *MCPDispatcher {
	return &MCPDispatcher{clients: clients}
}

// Invoke calls the ability on the named server. Unknown servers and any
// transport or tool failure degrade to error-shaped updates with the
// requested server identifier still set.
func (d *MCPDispatcher) Invoke(ctx context.Context, server, ability string, payload map[string]any) (map[string]any, string) {
	start := time.Now()

	client, ok := d.clients[server]
	if !ok {
		observe(server, ability, string(api.DispatchErrorUnknownServer), start)
		return api.ErrorUpdates(api.DispatchErrorUnknownServer,
			fmt.Sprintf("server %q not available", server)), server
	}

	updates, err := client.CallAbility(ctx, ability, payload)
	if err != nil {
		slog.Warn("ability call failed",
			"server", server,
			"ability", ability,
			"error", err,
		)
		observe(server, ability, string(api.DispatchErrorTransport), start)
		return api.ErrorUpdates(api.DispatchErrorTransport, err.Error()), server
	}
	if updates == nil {
		updates = map[string]any{}
	}

	observe(server, ability, "success", start)
	return updates, server
}

// Close closes all client connections, returning the last error
// encountered.
func (d *MCPDispatcher) Close() error {
	var lastErr error
	for name, client := range d.clients {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close ability server client", "server", name, "error", err)
			lastErr = err
		}
	}
	return lastErr
}
