package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/storage"
)

// testBypass mirrors the gateway's default bypass configuration.
var testBypass = []string{"/healthz", "/metrics"}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) *api.APIError {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("error body has no error object")
	}
	return resp.Error
}

func TestMiddleware_BypassEndpoints(t *testing.T) {
	chain := &Chain{Fallback: Refuse}
	handler := Middleware(chain, nil, testBypass)(okHandler())

	for _, path := range testBypass {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200 (bypassed)", path, rec.Code)
		}
	}
}

func TestMiddleware_Unauthenticated(t *testing.T) {
	chain := &Chain{Fallback: Refuse}
	handler := Middleware(chain, nil, testBypass)(okHandler())

	req := httptest.NewRequest("POST", "/v1/cases", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	apiErr := decodeErrorBody(t, rec)
	if apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeInvalidRequest)
	}
}

func TestMiddleware_GrantInjectsIdentityAndTenant(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{&staticAuthn{result: Result{
			Vote: Grant,
			Identity: &Identity{
				Subject:  "support-portal",
				Metadata: map[string]string{"tenant_id": "acme"},
			},
		}}},
		Fallback: Refuse,
	}

	var gotTenant string
	handler := Middleware(chain, nil, testBypass)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = storage.GetTenant(r.Context())
		id := IdentityFromContext(r.Context())
		if id == nil || id.Subject != "support-portal" {
			t.Error("expected identity support-portal in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/v1/cases", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotTenant != "acme" {
		t.Errorf("tenant = %q, want %q", gotTenant, "acme")
	}
}

func TestMiddleware_ScopeGate(t *testing.T) {
	scoped := func(scopes ...string) *Chain {
		return &Chain{
			Authenticators: []Authenticator{&staticAuthn{result: Result{
				Vote:     Grant,
				Identity: &Identity{Subject: "agent-7", Scopes: scopes},
			}}},
			Fallback: Refuse,
		}
	}

	tests := []struct {
		name   string
		chain  *Chain
		method string
		path   string
		want   int
	}{
		{"read-only token cannot file cases", scoped(ScopeCasesRead), "POST", "/v1/cases", http.StatusForbidden},
		{"read-only token cannot delete cases", scoped(ScopeCasesRead), "DELETE", "/v1/cases/case_x", http.StatusForbidden},
		{"read-only token can read cases", scoped(ScopeCasesRead), "GET", "/v1/cases/case_x", http.StatusOK},
		{"write token can file cases", scoped(ScopeCasesRead, ScopeCasesWrite), "POST", "/v1/cases", http.StatusOK},
		{"unscoped identity is unrestricted", scoped(), "POST", "/v1/cases", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Middleware(tt.chain, nil, testBypass)(okHandler())
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden {
				apiErr := decodeErrorBody(t, rec)
				if apiErr.Type != api.ErrorTypeForbidden {
					t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeForbidden)
				}
			}
		})
	}
}

func TestMiddleware_EmptySubjectIsServerError(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{&staticAuthn{result: Result{
			Vote:     Grant,
			Identity: &Identity{},
		}}},
		Fallback: Refuse,
	}
	handler := Middleware(chain, nil, testBypass)(okHandler())

	req := httptest.NewRequest("GET", "/v1/cases", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_RateLimitByTier(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{&staticAuthn{result: Result{
			Vote:     Grant,
			Identity: &Identity{Subject: "ticket-bridge", Tier: "bulk"},
		}}},
		Fallback: Refuse,
	}

	limiter := NewInProcessLimiter(map[string]int{"bulk": 2}, 100)
	handler := Middleware(chain, limiter, testBypass)(okHandler())

	// The bulk tier allows two requests per minute.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/v1/cases", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", "/v1/cases", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	apiErr := decodeErrorBody(t, rec)
	if apiErr.Type != api.ErrorTypeTooManyRequests {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeTooManyRequests)
	}
}

func TestMiddleware_NoLimiter(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{grantAs("support-portal")},
		Fallback:       Refuse,
	}
	handler := Middleware(chain, nil, testBypass)(okHandler())

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("POST", "/v1/cases", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}
