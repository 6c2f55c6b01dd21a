package transport

import (
	"context"

	"github.com/caseflow-dev/caseflow/pkg/api"
)

// CaseRunner handles the core create-case operation. It is the primary
// handler contract: run the pipeline for the request's input payload
// and return the resulting case.
type CaseRunner interface {
	CreateCase(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error)
}

// CaseRunnerFunc is an adapter that allows using an ordinary function
// as a CaseRunner.
type CaseRunnerFunc func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error)

// CreateCase calls f(ctx, req).
func (f CaseRunnerFunc) CreateCase(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
	return f(ctx, req)
}

// ListOptions controls pagination, filtering, and ordering for list operations.
type ListOptions struct {
	After     string // Cursor: return items after this ID.
	Before    string // Cursor: return items before this ID.
	Limit     int    // Maximum number of items to return (default 20, max 100).
	Escalated string // Filter by escalation outcome: "true", "false", or "" for all.
	Order     string // Sort order: "asc" or "desc" (default "desc").
}

// CaseList holds a paginated list of cases.
type CaseList struct {
	Object  string      `json:"object"`
	Data    []*api.Case `json:"data"`
	HasMore bool        `json:"has_more"`
	FirstID string      `json:"first_id"`
	LastID  string      `json:"last_id"`
}

// CaseStore handles persistence, retrieval, and deletion of completed
// cases. It is only available in deployments with persistence configured.
type CaseStore interface {
	// SaveCase persists a completed case to the store.
	SaveCase(ctx context.Context, c *api.Case) error

	// GetCase retrieves a case by ID. Returns storage.ErrNotFound if the
	// case does not exist or has been deleted (soft delete).
	GetCase(ctx context.Context, id string) (*api.Case, error)

	// DeleteCase soft-deletes a case by ID.
	DeleteCase(ctx context.Context, id string) error

	// ListCases returns a paginated list of stored cases. Results are
	// filtered by tenant (when present in context) and optionally by
	// escalation outcome. Supports cursor-based pagination and ordering.
	ListCases(ctx context.Context, opts ListOptions) (*CaseList, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
