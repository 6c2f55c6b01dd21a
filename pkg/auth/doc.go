// Package auth guards the case API.
//
// Authenticators vote Grant, Refuse, or Abstain; a Chain consults them
// in order and falls back to a configured vote when all abstain. The
// HTTP middleware runs the chain, enforces the cases:write scope on
// mutating operations for scoped callers, injects the caller's tenant
// into the request context for storage scoping, and applies per-tier
// rate limits. The bypass list (health and metrics endpoints) comes
// from the gateway configuration.
package auth
