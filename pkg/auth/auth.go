package auth

import (
	"context"
	"errors"
	"net/http"
)

// Vote is the outcome of a single authenticator.
type Vote int

const (
	// Grant admits the caller. The chain stops and the identity is used.
	Grant Vote = iota

	// Refuse rejects the caller: credentials were presented but are
	// invalid. The chain stops.
	Refuse

	// Abstain passes to the next authenticator. Used when the request
	// carries no credentials this authenticator understands.
	Abstain
)

// Result carries an authenticator's vote and, on Grant, the caller
// identity.
type Result struct {
	Vote     Vote
	Identity *Identity // set only on Grant
	Err      error     // set only on Refuse
}

// Case API scopes. Identities without any scopes are unrestricted;
// identities that carry scopes must hold ScopeCasesWrite to file or
// delete cases.
const (
	ScopeCasesRead  = "cases:read"
	ScopeCasesWrite = "cases:write"
)

// TierDefault is the rate-limit tier assigned when a caller has no
// explicit tier (anonymous access, keys without a tier entry).
const TierDefault = "default"

// Identity describes an authenticated caller of the case API.
type Identity struct {
	// Subject identifies the caller: a support agent, a portal
	// service account, a ticket-system bridge. Never empty on Grant.
	Subject string

	// Tier selects the caller's rate-limit budget.
	Tier string

	// Scopes lists the case API scopes granted to the caller.
	Scopes []string

	// Metadata carries authenticator-specific data. The "tenant_id"
	// key scopes case storage per tenant.
	Metadata map[string]string
}

// TenantID returns the caller's tenant, or "" when the caller is not
// tenant-scoped.
func (id *Identity) TenantID() string {
	if id == nil || id.Metadata == nil {
		return ""
	}
	return id.Metadata["tenant_id"]
}

// HasScope reports whether the identity carries the given scope.
func (id *Identity) HasScope(scope string) bool {
	if id == nil {
		return false
	}
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Authenticator inspects request credentials and votes.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain runs authenticators in order until one votes Grant or Refuse.
type Chain struct {
	// Authenticators are consulted left to right.
	Authenticators []Authenticator

	// Fallback applies when every authenticator abstains. Grant admits
	// the request anonymously; Refuse rejects it.
	Fallback Vote
}

// Authenticate evaluates the chain. When every authenticator abstains
// and the fallback is Grant, the caller becomes the anonymous identity
// on the default tier.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, a := range c.Authenticators {
		result := a.Authenticate(ctx, r)
		if result.Vote != Abstain {
			return result
		}
	}

	if c.Fallback == Grant {
		return Result{
			Vote:     Grant,
			Identity: &Identity{Subject: "anonymous", Tier: TierDefault},
		}
	}

	return Result{
		Vote: Refuse,
		Err:  ErrUnauthenticated,
	}
}
