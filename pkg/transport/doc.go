// Package transport defines the handler interfaces and middleware chain
// for the caseflow HTTP transport layer.
//
// The transport layer bridges external clients and the pipeline engine.
// It deserializes incoming requests into the core types defined in
// pkg/api, dispatches them for processing, and serializes the resulting
// cases back to the client as JSON.
//
// # Handler Interfaces
//
// Two handler interfaces define the contract between the transport
// layer and the rest of the system:
//
//   - CaseRunner handles the core create-case operation: run the
//     pipeline for one input payload and produce a Case.
//   - CaseStore handles persistence, retrieval, and deletion of
//     completed cases, available only when a store is configured.
//
// # Middleware
//
// The middleware chain wraps CaseRunner with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. Custom
// middleware can be added for application-specific concerns.
package transport
