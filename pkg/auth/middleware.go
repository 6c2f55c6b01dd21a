package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/observability"
	"github.com/caseflow-dev/caseflow/pkg/storage"
)

// Middleware wraps the case API with authentication, the scope gate,
// tenant scoping, and optional rate limiting. Paths on the bypass list
// (health and metrics endpoints, per config) skip all of it.
func Middleware(chain *Chain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Vote == Refuse {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				writeError(w, http.StatusUnauthorized, api.NewInvalidRequestError("", "authentication required"))
				return
			}

			if result.Vote != Grant || result.Identity == nil {
				writeError(w, http.StatusUnauthorized, api.NewInvalidRequestError("", "authentication required"))
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator granted identity with empty subject")
				writeError(w, http.StatusInternalServerError, api.NewServerError("internal authentication error"))
				return
			}

			// Scope gate: scoped identities need cases:write to file or
			// delete cases. Unscoped identities are unrestricted.
			if len(result.Identity.Scopes) > 0 && mutating(r.Method) && !result.Identity.HasScope(ScopeCasesWrite) {
				slog.Warn("scope check failed",
					"subject", result.Identity.Subject,
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusForbidden, api.NewForbiddenError("missing scope "+ScopeCasesWrite))
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.Tier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.Tier).Inc()
					writeError(w, http.StatusTooManyRequests, &api.APIError{
						Type:    api.ErrorTypeTooManyRequests,
						Message: "rate limit exceeded",
					})
					return
				}
			}

			ctx := SetIdentity(r.Context(), result.Identity)

			if tenantID := result.Identity.TenantID(); tenantID != "" {
				ctx = storage.SetTenant(ctx, tenantID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// writeError emits the case API error envelope.
func writeError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
