package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/caseflow-dev/caseflow/pkg/config"
	"github.com/caseflow-dev/caseflow/pkg/debug"
)

// MCPClient wraps an MCP SDK Client and ClientSession for a single
// ability server connection. It handles connection lifecycle and tool
// invocation; routing across servers is the MCPDispatcher's job.
type MCPClient struct {
	cfg     config.MCPServerConfig
	client  *mcp.Client
	session *mcp.ClientSession
}

// NewMCPClient creates a new MCPClient for the given server
// configuration. Call Connect to establish the connection.
func NewMCPClient(cfg config.MCPServerConfig) *MCPClient {
	return &MCPClient{cfg: cfg}
}

// Connect establishes the MCP connection to the server, performing the
// protocol handshake.
func (c *MCPClient) Connect(ctx context.Context) error {
	return c.ConnectWithTransport(ctx, nil)
}

// ConnectWithTransport establishes the MCP connection using the given
// transport. If transport is nil, a transport is created from the
// server configuration. Tests pass in-memory transports here.
func (c *MCPClient) ConnectWithTransport(ctx context.Context, transport mcp.Transport) error {
	c.client = mcp.NewClient(
		&mcp.Implementation{
			Name:    "caseflow",
			Version: "1.0.0",
		},
		&mcp.ClientOptions{
			Capabilities: &mcp.ClientCapabilities{},
		},
	)

	if transport == nil {
		t, err := c.createTransport()
		if err != nil {
			return fmt.Errorf("creating transport for %q: %w", c.cfg.Name, err)
		}
		transport = t
	}

	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to ability server %q: %w", c.cfg.Name, err)
	}
	c.session = session
	return nil
}

// createTransport creates an MCP transport based on the server configuration.
func (c *MCPClient) createTransport() (mcp.Transport, error) {
	httpClient := c.buildHTTPClient()

	switch c.cfg.Transport {
	case "sse":
		transport := &mcp.SSEClientTransport{
			Endpoint: c.cfg.URL,
		}
		if httpClient != nil {
			transport.HTTPClient = httpClient
		}
		return transport, nil

	case "streamable-http", "":
		transport := &mcp.StreamableClientTransport{
			Endpoint: c.cfg.URL,
		}
		if httpClient != nil {
			transport.HTTPClient = httpClient
		}
		return transport, nil

	default:
		return nil, fmt.Errorf("unsupported transport type %q", c.cfg.Transport)
	}
}

// buildHTTPClient returns an HTTP client that adds the configured static
// headers to every request, or nil when none are configured.
func (c *MCPClient) buildHTTPClient() *http.Client {
	if len(c.cfg.Headers) == 0 {
		return nil
	}
	return &http.Client{
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			headers: c.cfg.Headers,
		},
	}
}

// headerTransport is an http.RoundTripper that adds custom headers to
// every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// CallAbility invokes one ability as an MCP tool call and decodes the
// JSON text content of the result into a field-update map. A tool
// result flagged as an error, or content that is not a JSON object,
// returns an error to the caller for uniform degradation.
func (c *MCPClient) CallAbility(ctx context.Context, ability string, payload map[string]any) (map[string]any, error) {
	if c.session == nil {
		return nil, fmt.Errorf("ability server %q not connected", c.cfg.Name)
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ability,
		Arguments: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("calling %q on %q: %w", ability, c.cfg.Name, err)
	}

	text := textContent(result)
	if debug.TraceIsEnabled("mcp") {
		debug.Raw("mcp", fmt.Sprintf("<<< %s/%s: %s", c.cfg.Name, ability, text))
	}
	if result.IsError {
		return nil, fmt.Errorf("ability %q on %q failed: %s", ability, c.cfg.Name, text)
	}

	var updates map[string]any
	if err := json.Unmarshal([]byte(text), &updates); err != nil {
		return nil, fmt.Errorf("decoding result of %q from %q: %w", ability, c.cfg.Name, err)
	}
	return updates, nil
}

// Close closes the MCP session.
func (c *MCPClient) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// textContent concatenates the text parts of a tool result.
func textContent(result *mcp.CallToolResult) string {
	var out string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += tc.Text
		}
	}
	return out
}
