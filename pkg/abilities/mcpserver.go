package abilities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer exposes a provider's abilities as tools on an MCP server.
// Each tool accepts an arbitrary JSON object payload and returns the
// handler's field-update map JSON-encoded as text content. Handler errors
// become error-shaped tool results rather than protocol failures, so the
// calling dispatcher can degrade them uniformly.
func NewMCPServer(p Provider, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: p.Name(), Version: version},
		nil,
	)

	// Deterministic registration order keeps tool listings stable.
	handlers := p.Handlers()
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		handler := handlers[name]
		mcp.AddTool(server, &mcp.Tool{
			Name:        name,
			Description: fmt.Sprintf("Ability %q on server %s", name, p.Name()),
		}, func(ctx context.Context, _ *mcp.CallToolRequest, payload map[string]any) (*mcp.CallToolResult, struct{}, error) {
			updates, err := handler(ctx, payload)
			if err != nil {
				return errorResult(err.Error()), struct{}{}, nil
			}

			data, err := json.Marshal(updates)
			if err != nil {
				return errorResult(fmt.Sprintf("encoding result: %v", err)), struct{}{}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
			}, struct{}{}, nil
		})
	}

	return server
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}
