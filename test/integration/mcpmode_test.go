package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/caseflow-dev/caseflow/pkg/abilities"
	"github.com/caseflow-dev/caseflow/pkg/abilities/atlas"
	"github.com/caseflow-dev/caseflow/pkg/abilities/common"
	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/config"
	"github.com/caseflow-dev/caseflow/pkg/dispatch"
	"github.com/caseflow-dev/caseflow/pkg/pipeline"
	"github.com/caseflow-dev/caseflow/pkg/routing"
)

// startAbilityServer serves a provider over streamable HTTP the way
// cmd/common-server and cmd/atlas-server do.
func startAbilityServer(t *testing.T, p abilities.Provider) *httptest.Server {
	t.Helper()

	server := abilities.NewMCPServer(p, "test")
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// TestPipelineOverMCP runs the full pipeline in dispatch mode "mcp":
// both ability sets live behind real streamable HTTP servers and every
// invocation crosses the wire.
func TestPipelineOverMCP(t *testing.T) {
	ctx := context.Background()

	clients := make(map[string]*dispatch.MCPClient)
	for name, provider := range map[string]abilities.Provider{
		"COMMON": common.New(),
		"ATLAS":  atlas.New(),
	} {
		ts := startAbilityServer(t, provider)
		client := dispatch.NewMCPClient(config.MCPServerConfig{
			Name:      name,
			Transport: "streamable-http",
			URL:       ts.URL + "/mcp",
		})
		if err := client.Connect(ctx); err != nil {
			t.Fatalf("connecting to %s: %v", name, err)
		}
		t.Cleanup(func() { client.Close() })
		clients[name] = client
	}

	dispatcher := dispatch.NewMCPDispatcher(clients)
	engine := pipeline.New(routing.NewTable(stageMapping()), dispatcher)

	rec := engine.Run(ctx, map[string]any{
		"customer_name": "Amiya",
		"email":         "amiya@example.com",
		"query":         "My order 12345 has not been delivered yet.",
		"priority":      "high",
		"ticket_id":     "T-1001",
	})

	decision := api.DecisionFromRecord(rec)
	if decision.Solution != "inform_and_wait" || decision.Score != 93 {
		t.Errorf("decision = %+v, want inform_and_wait/93", decision)
	}
	if api.EscalationFromRecord(rec).Required {
		t.Error("known order should not escalate over MCP either")
	}

	audit := rec.AuditLog()
	if len(audit) != 20 {
		t.Fatalf("audit log has %d entries, want 20", len(audit))
	}

	// Every dispatched entry names the remote server that handled it;
	// only the synthetic non-escalation merge has none.
	for _, entry := range audit {
		if entry.Ability == "escalation_decision" {
			if entry.Server != "" {
				t.Errorf("synthetic escalation entry has server %q, want none", entry.Server)
			}
			continue
		}
		if entry.Server != "COMMON" && entry.Server != "ATLAS" {
			t.Errorf("entry %s/%s has server %q, want COMMON or ATLAS",
				entry.Stage, entry.Ability, entry.Server)
		}
	}
}
