package auth

import "context"

type identityKey struct{}

// SetIdentity attaches the caller identity to the request context.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity attached by the
// middleware, or nil on unauthenticated paths (bypass endpoints,
// direct handler tests).
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}
