// Package noop admits every request. The gateway uses it when no
// authentication is configured but rate limiting still needs an
// identity to count against.
package noop

import (
	"context"
	"net/http"

	"github.com/caseflow-dev/caseflow/pkg/auth"
)

// Authenticator grants every request. Zero values fall back to the
// anonymous subject on the default tier.
type Authenticator struct {
	Subject string
	Tier    string
}

var _ auth.Authenticator = (*Authenticator)(nil)

func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.Result {
	subject := a.Subject
	if subject == "" {
		subject = "anonymous"
	}
	tier := a.Tier
	if tier == "" {
		tier = auth.TierDefault
	}
	return auth.Result{
		Vote:     auth.Grant,
		Identity: &auth.Identity{Subject: subject, Tier: tier},
	}
}
