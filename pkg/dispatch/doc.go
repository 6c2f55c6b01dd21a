// Package dispatch routes ability invocations to backend servers.
//
// A Dispatcher never fails: unknown servers, unknown abilities, handler
// errors, panics, and transport failures all degrade to an error-shaped
// update map so the ledger merge and the pipeline continue
// deterministically. The error simply becomes part of the case record
// for later stages and humans to notice.
//
// Two implementations exist: Registry invokes in-process ability
// providers through an explicit (server, ability) table, and
// MCPDispatcher calls remote MCP servers over the Model Context
// Protocol.
package dispatch
