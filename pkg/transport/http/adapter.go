package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/storage"
	"github.com/caseflow-dev/caseflow/pkg/transport"
)

// Adapter serves the caseflow API over HTTP. It routes requests to the
// appropriate handler and serializes cases.
type Adapter struct {
	runner transport.CaseRunner
	store  transport.CaseStore // nil if no persistence configured
	mux    *http.ServeMux
	config Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout int // seconds
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxBodySize:     1 << 20, // 1 MB
		ShutdownTimeout: 30,
	}
}

// NewAdapter creates an HTTP adapter with the given CaseRunner and options.
// The CaseStore is optional; when nil, GET and DELETE endpoints return
// an error indicating the operation is not available.
// Middleware is applied to the CaseRunner in the given order.
func NewAdapter(runner transport.CaseRunner, store transport.CaseStore, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		runner = transport.Chain(middlewares...)(runner)
	}

	a := &Adapter{
		runner: runner,
		store:  store,
		mux:    http.NewServeMux(),
		config: cfg,
	}

	a.mux.HandleFunc("POST /v1/cases", a.handleCreateCase)
	a.mux.HandleFunc("GET /v1/cases/{id}/audit", a.handleGetAuditLog)
	a.mux.HandleFunc("GET /v1/cases/{id}", a.handleGetCase)
	a.mux.HandleFunc("GET /v1/cases", a.handleListCases)
	a.mux.HandleFunc("DELETE /v1/cases/{id}", a.handleDeleteCase)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. If present in the request, it is forwarded to
// the response. After the handler runs, it checks the context for a
// request ID (set by the transport-level RequestID middleware) and adds
// it to the response headers if not already set.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleCreateCase handles POST /v1/cases.
func (a *Adapter) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if apiErr := req.Validate(); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	c, err := a.runner.CreateCase(r.Context(), &req)
	if err != nil {
		a.writeHandlerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}

// handleGetCase handles GET /v1/cases/{id}.
func (a *Adapter) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCase(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// handleGetAuditLog handles GET /v1/cases/{id}/audit. It serves the
// audit log slice of the stored record as a list object.
func (a *Adapter) handleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCase(w, r)
	if !ok {
		return
	}

	audit := c.Record["audit_log"]
	if audit == nil {
		audit = []any{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   audit,
	})
}

// loadCase fetches the path's case from the store, writing the error
// response itself when the lookup fails.
func (a *Adapter) loadCase(w http.ResponseWriter, r *http.Request) (*api.Case, bool) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "case retrieval is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return nil, false
	}

	id := r.PathValue("id")
	if !api.ValidateCaseID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed case ID"),
			http.StatusBadRequest,
		)
		return nil, false
	}

	c, err := a.store.GetCase(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, id, err)
		return nil, false
	}
	return c, true
}

// handleDeleteCase handles DELETE /v1/cases/{id}.
func (a *Adapter) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "case deletion is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	id := r.PathValue("id")
	if !api.ValidateCaseID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed case ID"),
			http.StatusBadRequest,
		)
		return
	}

	if err := a.store.DeleteCase(r.Context(), id); err != nil {
		a.writeStoreError(w, id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListCases handles GET /v1/cases.
func (a *Adapter) handleListCases(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "case listing is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	opts, optErr := parseListOptions(r)
	if optErr != nil {
		transport.WriteErrorResponse(w, optErr, http.StatusBadRequest)
		return
	}

	result, err := a.store.ListCases(r.Context(), opts)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			transport.WriteAPIError(w, apiErr)
		} else {
			transport.WriteAPIError(w, api.NewServerError(err.Error()))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleHealth handles GET /healthz. With a store configured it checks
// the store connection too.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		if err := a.store.HealthCheck(r.Context()); err != nil {
			transport.WriteErrorResponse(w,
				api.NewServerError("store unhealthy: "+err.Error()),
				http.StatusServiceUnavailable,
			)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// parseListOptions extracts pagination parameters from the query string.
func parseListOptions(r *http.Request) (transport.ListOptions, *api.APIError) {
	q := r.URL.Query()
	opts := transport.ListOptions{
		After:     q.Get("after"),
		Before:    q.Get("before"),
		Escalated: q.Get("escalated"),
		Order:     q.Get("order"),
	}

	if opts.After != "" && opts.Before != "" {
		return opts, api.NewInvalidRequestError("after", "cannot use both 'after' and 'before' cursors")
	}

	if opts.Escalated != "" && opts.Escalated != "true" && opts.Escalated != "false" {
		return opts, api.NewInvalidRequestError("escalated", "escalated must be 'true' or 'false'")
	}

	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		return opts, api.NewInvalidRequestError("order", "order must be 'asc' or 'desc'")
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}

// writeStoreError maps store lookup failures to API error responses.
func (a *Adapter) writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		transport.WriteAPIError(w, api.NewNotFoundError("case "+id+" not found"))
		return
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		transport.WriteAPIError(w, apiErr)
		return
	}
	transport.WriteAPIError(w, api.NewServerError(err.Error()))
}

// writeHandlerError writes an error response from the case runner.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError(err.Error())
	}
	transport.WriteAPIError(w, apiErr)
}
