package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/storage"
	"github.com/caseflow-dev/caseflow/pkg/transport"
)

func newCase(id string, createdAt int64, escalated bool) *api.Case {
	return &api.Case{
		ID:        id,
		Object:    "case",
		CreatedAt: createdAt,
		Escalated: escalated,
		Record:    api.Record{"query": "test"},
	}
}

func TestSaveAndGetCase(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	c := newCase("case_1", 100, false)
	if err := s.SaveCase(ctx, c); err != nil {
		t.Fatalf("SaveCase: %v", err)
	}

	got, err := s.GetCase(ctx, "case_1")
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if got.ID != "case_1" || got.Record.GetString("query") != "test" {
		t.Errorf("got %+v, want the saved case", got)
	}
}

func TestSaveConflict(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if err := s.SaveCase(ctx, newCase("case_1", 100, false)); err != nil {
		t.Fatalf("SaveCase: %v", err)
	}
	err := s.SaveCase(ctx, newCase("case_1", 200, false))
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestGetCaseNotFound(t *testing.T) {
	s := New(0)
	_, err := s.GetCase(context.Background(), "case_missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCaseSoftDeletes(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if err := s.SaveCase(ctx, newCase("case_1", 100, false)); err != nil {
		t.Fatalf("SaveCase: %v", err)
	}
	if err := s.DeleteCase(ctx, "case_1"); err != nil {
		t.Fatalf("DeleteCase: %v", err)
	}

	if _, err := s.GetCase(ctx, "case_1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetCase after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCase(ctx, "case_1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}

	// The ID stays reserved after a soft delete.
	if err := s.SaveCase(ctx, newCase("case_1", 200, false)); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("save after delete: err = %v, want ErrConflict", err)
	}
}

func TestTenantScoping(t *testing.T) {
	s := New(0)
	ctxA := storage.SetTenant(context.Background(), "tenant-a")
	ctxB := storage.SetTenant(context.Background(), "tenant-b")

	if err := s.SaveCase(ctxA, newCase("case_1", 100, false)); err != nil {
		t.Fatalf("SaveCase: %v", err)
	}

	if _, err := s.GetCase(ctxA, "case_1"); err != nil {
		t.Errorf("owner tenant GetCase: %v", err)
	}
	if _, err := s.GetCase(ctxB, "case_1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("other tenant GetCase: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCase(ctxB, "case_1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("other tenant DeleteCase: err = %v, want ErrNotFound", err)
	}
}

func TestLRUEviction(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.SaveCase(ctx, newCase(fmt.Sprintf("case_%d", i), int64(i), false)); err != nil {
			t.Fatalf("SaveCase %d: %v", i, err)
		}
	}

	// The oldest entry was evicted to make room.
	if _, err := s.GetCase(ctx, "case_1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("case_1 should be evicted, got err = %v", err)
	}
	if _, err := s.GetCase(ctx, "case_3"); err != nil {
		t.Errorf("case_3 should survive, got err = %v", err)
	}
}

func TestListCases(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		c := newCase(fmt.Sprintf("case_%d", i), int64(i*100), i%2 == 0)
		if err := s.SaveCase(ctx, c); err != nil {
			t.Fatalf("SaveCase: %v", err)
		}
	}

	// Default order is newest first.
	result, err := s.ListCases(ctx, transport.ListOptions{})
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if len(result.Data) != 5 || result.Data[0].ID != "case_5" {
		t.Fatalf("default list = %d entries starting %s, want 5 starting case_5",
			len(result.Data), result.Data[0].ID)
	}
	if result.FirstID != "case_5" || result.LastID != "case_1" {
		t.Errorf("cursors = %s..%s, want case_5..case_1", result.FirstID, result.LastID)
	}

	// Escalation filter.
	result, err = s.ListCases(ctx, transport.ListOptions{Escalated: "true"})
	if err != nil {
		t.Fatalf("ListCases escalated: %v", err)
	}
	if len(result.Data) != 2 {
		t.Errorf("escalated list has %d entries, want 2", len(result.Data))
	}
	for _, c := range result.Data {
		if !c.Escalated {
			t.Errorf("case %s in escalated list is not escalated", c.ID)
		}
	}

	// Cursor pagination with ascending order.
	result, err = s.ListCases(ctx, transport.ListOptions{Order: "asc", After: "case_2", Limit: 2})
	if err != nil {
		t.Fatalf("ListCases after cursor: %v", err)
	}
	if len(result.Data) != 2 || result.Data[0].ID != "case_3" || result.Data[1].ID != "case_4" {
		t.Errorf("paginated list = %+v, want [case_3 case_4]", result.Data)
	}
	if !result.HasMore {
		t.Error("expected has_more with one entry remaining")
	}
}

func TestListCasesEmpty(t *testing.T) {
	s := New(0)
	result, err := s.ListCases(context.Background(), transport.ListOptions{})
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if result.Data == nil || len(result.Data) != 0 {
		t.Errorf("empty list data = %v, want []", result.Data)
	}
	if result.Object != "list" {
		t.Errorf("object = %q, want list", result.Object)
	}
}
