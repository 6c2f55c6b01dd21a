// Package jwt authenticates case API callers by OIDC bearer tokens.
// Tokens must be RSA-signed; signatures are verified against the keys
// published at a JWKS endpoint. Claims map onto the caseflow identity:
// subject, tenant, rate-limit tier, and case API scopes.
package jwt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caseflow-dev/caseflow/pkg/auth"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Config holds the token validation and claim mapping settings.
type Config struct {
	// Issuer is the required iss claim. Empty skips issuer validation.
	Issuer string

	// Audience is the required aud claim. Empty skips audience
	// validation.
	Audience string

	// JWKSURL is where the issuer publishes its signing keys.
	JWKSURL string

	// SubjectClaim names the claim that becomes the identity subject.
	// Default: "sub".
	SubjectClaim string

	// TenantClaim names the claim that scopes the caller's cases in
	// storage. Default: "tenant_id".
	TenantClaim string

	// TierClaim names the claim that selects the caller's rate-limit
	// tier. Default: "tier".
	TierClaim string

	// ScopesClaim names the claim carrying case API scopes, either a
	// space-separated string or a JSON array. Default: "scope".
	ScopesClaim string

	// CacheTTL bounds how long fetched JWKS keys are reused.
	// Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient fetches the JWKS. Default: http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.SubjectClaim == "" {
		c.SubjectClaim = "sub"
	}
	if c.TenantClaim == "" {
		c.TenantClaim = "tenant_id"
	}
	if c.TierClaim == "" {
		c.TierClaim = "tier"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 1 * time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// Authenticator validates bearer tokens against the issuer's JWKS.
type Authenticator struct {
	config Config
	keys   *keySet
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New creates a JWT authenticator.
func New(cfg Config) *Authenticator {
	cfg.applyDefaults()
	return &Authenticator{
		config: cfg,
		keys:   newKeySet(cfg.JWKSURL, cfg.CacheTTL, cfg.HTTPClient),
	}
}

// Authenticate votes Grant for a valid token, Refuse for a present but
// invalid one, and Abstain when the request carries no bearer token.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.Result {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Result{Vote: auth.Abstain}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.Result{Vote: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.Result{
			Vote: auth.Refuse,
			Err:  fmt.Errorf("empty bearer token"),
		}
	}

	token, err := jwtlib.Parse(tokenStr, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token missing kid header")
		}

		key, fetchErr := a.keys.get(ctx, kid)
		if fetchErr != nil {
			return nil, fmt.Errorf("resolving signing key %q: %w", kid, fetchErr)
		}
		return key, nil
	}, a.parserOptions()...)
	if err != nil {
		slog.Debug("JWT validation failed", "error", err)
		return auth.Result{
			Vote: auth.Refuse,
			Err:  fmt.Errorf("invalid JWT: %w", err),
		}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return auth.Result{
			Vote: auth.Refuse,
			Err:  fmt.Errorf("invalid JWT claims"),
		}
	}

	subject := claimString(claims, a.config.SubjectClaim)
	if subject == "" {
		return auth.Result{
			Vote: auth.Refuse,
			Err:  fmt.Errorf("JWT missing %q claim", a.config.SubjectClaim),
		}
	}

	identity := &auth.Identity{
		Subject:  subject,
		Tier:     claimString(claims, a.config.TierClaim),
		Scopes:   claimScopes(claims, a.config.ScopesClaim),
		Metadata: make(map[string]string),
	}
	if tenant := claimString(claims, a.config.TenantClaim); tenant != "" {
		identity.Metadata["tenant_id"] = tenant
	}

	return auth.Result{
		Vote:     auth.Grant,
		Identity: identity,
	}
}

func (a *Authenticator) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}
	return opts
}

// claimString returns the claim as a string, or "" when missing or of
// another type.
func claimString(claims jwtlib.MapClaims, key string) string {
	val, ok := claims[key]
	if !ok {
		return ""
	}
	s, ok := val.(string)
	if !ok {
		return ""
	}
	return s
}

// claimScopes accepts the scope claim as a space-separated string or
// as a JSON array of strings.
func claimScopes(claims jwtlib.MapClaims, key string) []string {
	val, ok := claims[key]
	if !ok {
		return nil
	}

	if s, ok := val.(string); ok {
		parts := strings.Fields(s)
		if len(parts) == 0 {
			return nil
		}
		return parts
	}

	if arr, ok := val.([]interface{}); ok {
		var scopes []string
		for _, item := range arr {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		if len(scopes) == 0 {
			return nil
		}
		return scopes
	}

	return nil
}
