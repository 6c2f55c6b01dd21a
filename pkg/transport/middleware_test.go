package transport

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/caseflow-dev/caseflow/pkg/api"
)

func okRunner(c *api.Case) CaseRunner {
	return CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
		return c, nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next CaseRunner) CaseRunner {
			return CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
				order = append(order, name)
				return next.CreateCase(ctx, req)
			})
		}
	}

	runner := Chain(mark("a"), mark("b"), mark("c"))(okRunner(&api.Case{ID: "case_x"}))
	if _, err := runner.CreateCase(context.Background(), &api.CreateCaseRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "a,b,c"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("middleware order = %q, want %q", got, want)
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	runner := Recovery()(CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
		panic("nil pointer somewhere deep")
	}))

	c, err := runner.CreateCase(context.Background(), &api.CreateCaseRequest{})
	if c != nil {
		t.Errorf("case = %v, want nil after panic", c)
	}

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.APIError", err)
	}
	if apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %v, want server_error", apiErr.Type)
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	runner := RequestID()(CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
		seen = RequestIDFromContext(ctx)
		return &api.Case{ID: "case_x"}, nil
	}))

	if _, err := runner.CreateCase(context.Background(), &api.CreateCaseRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" {
		t.Error("expected a generated request ID in context")
	}
}

func TestRequestIDPreservesExisting(t *testing.T) {
	var seen string
	runner := RequestID()(CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
		seen = RequestIDFromContext(ctx)
		return &api.Case{ID: "case_x"}, nil
	}))

	ctx := ContextWithRequestID(context.Background(), "req-from-header")
	if _, err := runner.CreateCase(ctx, &api.CreateCaseRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-from-header" {
		t.Errorf("request ID = %q, want req-from-header", seen)
	}
}

func TestLoggingEmitsCaseFields(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	runner := Logging(logger)(okRunner(&api.Case{ID: "case_abc", Escalated: true}))
	if _, err := runner.CreateCase(context.Background(), &api.CreateCaseRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "case_abc") || !strings.Contains(out, "escalated=true") {
		t.Errorf("log output missing case fields: %s", out)
	}
	if !strings.Contains(out, "case run completed") {
		t.Errorf("log output missing completion message: %s", out)
	}
}

func TestLoggingReportsError(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	runner := Logging(logger)(CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
		return nil, api.NewServerError("engine unavailable")
	}))
	if _, err := runner.CreateCase(context.Background(), &api.CreateCaseRequest{}); err == nil {
		t.Fatal("expected error")
	}

	out := buf.String()
	if !strings.Contains(out, "case run failed") || !strings.Contains(out, "engine unavailable") {
		t.Errorf("log output missing failure details: %s", out)
	}
}
