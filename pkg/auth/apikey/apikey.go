// Package apikey authenticates case API callers by static bearer
// keys. Keys are SHA-256 hashed at startup and matched in constant
// time; each key carries its own subject, rate-limit tier, and
// optional tenant.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/caseflow-dev/caseflow/pkg/auth"
)

// Key is one configured API key.
type Key struct {
	// Token is the plaintext key presented by the caller. It is hashed
	// immediately and never retained.
	Token string

	// Subject names the caller (e.g. "support-portal").
	Subject string

	// Tier selects the caller's rate-limit budget. Empty means the
	// default tier.
	Tier string

	// Tenant scopes the caller's cases in storage. Empty means
	// unscoped.
	Tenant string
}

type entry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator matches bearer tokens against the configured keys.
type Authenticator struct {
	entries []entry
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New builds an authenticator from the configured keys.
func New(keys []Key) *Authenticator {
	a := &Authenticator{}
	for _, k := range keys {
		tier := k.Tier
		if tier == "" {
			tier = auth.TierDefault
		}
		identity := auth.Identity{Subject: k.Subject, Tier: tier}
		if k.Tenant != "" {
			identity.Metadata = map[string]string{"tenant_id": k.Tenant}
		}
		a.entries = append(a.entries, entry{
			hash:     sha256.Sum256([]byte(k.Token)),
			identity: identity,
		})
	}
	return a
}

// Authenticate votes Grant for a known bearer key, Refuse for an
// unknown or empty one, and Abstain when the request carries no
// bearer credentials at all.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Result{Vote: auth.Abstain}
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return auth.Result{Vote: auth.Abstain}
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return auth.Result{Vote: auth.Refuse, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	for _, e := range a.entries {
		if subtle.ConstantTimeCompare(tokenHash[:], e.hash[:]) == 1 {
			// Copy so callers cannot mutate the stored identity.
			id := e.identity
			return auth.Result{Vote: auth.Grant, Identity: &id}
		}
	}

	return auth.Result{Vote: auth.Refuse, Err: auth.ErrUnauthenticated}
}
