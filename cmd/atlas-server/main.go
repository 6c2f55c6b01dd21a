// Command atlas-server exposes the ATLAS ability set (external-system
// abilities: entity extraction, enrichment, knowledge base search,
// ticket updates) as an MCP server over streamable HTTP.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/caseflow-dev/caseflow/pkg/abilities"
	"github.com/caseflow-dev/caseflow/pkg/abilities/atlas"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8001"
	}

	server := abilities.NewMCPServer(atlas.New(), "1.0.0")

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	slog.Info("ATLAS ability server starting", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
