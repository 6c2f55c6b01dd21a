// Package postgres provides a PostgreSQL implementation of transport.CaseStore.
// It uses pgx/v5 for connection pooling and JSONB for the case record.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/storage"
	"github.com/caseflow-dev/caseflow/pkg/transport"
)

// Store is a PostgreSQL-backed CaseStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements transport.CaseStore at compile time.
var _ transport.CaseStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveCase persists a completed case.
func (s *Store) SaveCase(ctx context.Context, c *api.Case) error {
	tenantID := storage.GetTenant(ctx)

	recordJSON, err := json.Marshal(c.Record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO cases (id, tenant_id, escalated, record, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		c.ID, tenantID, c.Escalated, recordJSON, c.CreatedAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting case: %w", err)
	}

	return nil
}

// GetCase retrieves a case by ID, excluding soft-deleted cases. Scoped
// by tenant when a tenant is present in the context.
func (s *Store) GetCase(ctx context.Context, id string) (*api.Case, error) {
	tenantID := storage.GetTenant(ctx)

	query := `
		SELECT id, escalated, record, created_at
		FROM cases
		WHERE id = $1 AND deleted_at IS NULL
	`
	args := []any{id}

	if tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	c, err := scanCase(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying case: %w", err)
	}
	return c, nil
}

// DeleteCase soft-deletes a case by setting deleted_at.
func (s *Store) DeleteCase(ctx context.Context, id string) error {
	tenantID := storage.GetTenant(ctx)

	query := "UPDATE cases SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL"
	args := []any{time.Now(), id}

	if tenantID != "" {
		query += " AND tenant_id = $3"
		args = append(args, tenantID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting case: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// ListCases returns a paginated list of stored cases.
func (s *Store) ListCases(ctx context.Context, opts transport.ListOptions) (*transport.CaseList, error) {
	tenantID := storage.GetTenant(ctx)

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "deleted_at IS NULL")
	if tenantID != "" {
		where = append(where, "tenant_id = "+arg(tenantID))
	}
	if opts.Escalated == "true" {
		where = append(where, "escalated")
	} else if opts.Escalated == "false" {
		where = append(where, "NOT escalated")
	}

	// Cursor pagination on (created_at, id), matching the sort order.
	asc := opts.Order == "asc"
	if opts.After != "" {
		cmp := "<"
		if asc {
			cmp = ">"
		}
		where = append(where, fmt.Sprintf(
			"(created_at, id) %s (SELECT created_at, id FROM cases WHERE id = %s)",
			cmp, arg(opts.After)))
	} else if opts.Before != "" {
		cmp := ">"
		if asc {
			cmp = "<"
		}
		where = append(where, fmt.Sprintf(
			"(created_at, id) %s (SELECT created_at, id FROM cases WHERE id = %s)",
			cmp, arg(opts.Before)))
	}

	order := "created_at DESC, id DESC"
	if asc {
		order = "created_at ASC, id ASC"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	// Fetch one extra row to detect has_more.
	query := fmt.Sprintf(`
		SELECT id, escalated, record, created_at
		FROM cases
		WHERE %s
		ORDER BY %s
		LIMIT %s
	`, strings.Join(where, " AND "), order, arg(limit+1))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()

	var cases []*api.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cases: %w", err)
	}

	hasMore := len(cases) > limit
	if hasMore {
		cases = cases[:limit]
	}

	result := &transport.CaseList{
		Object:  "list",
		Data:    cases,
		HasMore: hasMore,
	}
	if len(cases) > 0 {
		result.FirstID = cases[0].ID
		result.LastID = cases[len(cases)-1].ID
	}
	if result.Data == nil {
		result.Data = []*api.Case{}
	}

	return result, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanCase reads one row into a Case.
func scanCase(row pgx.Row) (*api.Case, error) {
	var c api.Case
	var recordJSON []byte

	if err := row.Scan(&c.ID, &c.Escalated, &recordJSON, &c.CreatedAt); err != nil {
		return nil, err
	}

	c.Object = "case"
	if err := json.Unmarshal(recordJSON, &c.Record); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return &c, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
