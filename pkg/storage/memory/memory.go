// Package memory provides an in-memory implementation of transport.CaseStore
// for testing and lightweight deployments. Cases are stored in memory and
// lost when the process restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/storage"
	"github.com/caseflow-dev/caseflow/pkg/transport"
)

// entry holds a stored case and its metadata.
type entry struct {
	c         *api.Case
	tenantID  string
	deletedAt *time.Time
	lruElem   *list.Element // position in LRU list
}

// Store is an in-memory CaseStore with optional LRU eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// Ensure Store implements transport.CaseStore at compile time.
var _ transport.CaseStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the oldest entry is evicted when the
// limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// SaveCase persists a case in memory.
func (s *Store) SaveCase(ctx context.Context, c *api.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[c.ID]; exists {
		return storage.ErrConflict
	}

	tenantID := storage.GetTenant(ctx)

	// Evict if at capacity.
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(c.ID)
	s.entries[c.ID] = &entry{
		c:        c,
		tenantID: tenantID,
		lruElem:  elem,
	}

	return nil
}

// GetCase retrieves a case by ID. Returns ErrNotFound if the case does
// not exist or has been soft-deleted. Scoped by tenant when a tenant is
// present in the context.
func (s *Store) GetCase(ctx context.Context, id string) (*api.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.deletedAt != nil {
		return nil, storage.ErrNotFound
	}

	// Tenant scoping.
	tenantID := storage.GetTenant(ctx)
	if tenantID != "" && e.tenantID != tenantID {
		return nil, storage.ErrNotFound
	}

	return e.c, nil
}

// DeleteCase soft-deletes a case. The entry stays in the map so the ID
// cannot be reused, but reads treat it as gone.
func (s *Store) DeleteCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.deletedAt != nil {
		return storage.ErrNotFound
	}

	// Tenant scoping.
	tenantID := storage.GetTenant(ctx)
	if tenantID != "" && e.tenantID != tenantID {
		return storage.ErrNotFound
	}

	now := time.Now()
	e.deletedAt = &now
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// ListCases returns a paginated list of stored cases filtered by tenant
// and optionally by escalation outcome, with cursor-based pagination.
func (s *Store) ListCases(ctx context.Context, opts transport.ListOptions) (*transport.CaseList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := storage.GetTenant(ctx)

	// Collect matching entries.
	var matches []*api.Case
	for _, e := range s.entries {
		if e.deletedAt != nil {
			continue
		}
		if tenantID != "" && e.tenantID != tenantID {
			continue
		}
		if opts.Escalated == "true" && !e.c.Escalated {
			continue
		}
		if opts.Escalated == "false" && e.c.Escalated {
			continue
		}
		matches = append(matches, e.c)
	}

	// Sort by created_at. Default is desc (newest first).
	asc := opts.Order == "asc"
	sort.Slice(matches, func(i, j int) bool {
		if asc {
			if matches[i].CreatedAt != matches[j].CreatedAt {
				return matches[i].CreatedAt < matches[j].CreatedAt
			}
			return matches[i].ID < matches[j].ID
		}
		if matches[i].CreatedAt != matches[j].CreatedAt {
			return matches[i].CreatedAt > matches[j].CreatedAt
		}
		return matches[i].ID > matches[j].ID
	})

	// Apply cursor-based pagination.
	if opts.After != "" {
		idx := -1
		for i, c := range matches {
			if c.ID == opts.After {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	} else if opts.Before != "" {
		idx := -1
		for i, c := range matches {
			if c.ID == opts.Before {
				idx = i
				break
			}
		}
		if idx > 0 {
			matches = matches[:idx]
		} else {
			matches = nil
		}
	}

	// Apply limit.
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}

	result := &transport.CaseList{
		Object:  "list",
		Data:    matches,
		HasMore: hasMore,
	}
	if len(matches) > 0 {
		result.FirstID = matches[0].ID
		result.LastID = matches[len(matches)-1].ID
	}
	if result.Data == nil {
		result.Data = []*api.Case{}
	}

	return result, nil
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
}
