// Package abilities defines how backend servers expose their abilities
// to the dispatcher: a Handler is one named unit of work, a Provider is
// the set of handlers owned by one server identifier.
//
// Providers can be wired in-process through the registry dispatcher or
// served remotely as MCP tools via NewMCPServer. The engine never calls
// a handler directly; everything goes through the dispatch layer.
package abilities
