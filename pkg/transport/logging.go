package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/caseflow-dev/caseflow/pkg/api"
)

// Logging returns middleware that emits structured log entries for each
// case run. The log entry includes the request ID (from context), the
// case ID and escalation outcome, and the run duration.
//
// Note: The HTTP method and path are not available at the CaseRunner
// level. For full HTTP-level logging (including status codes), use
// HTTP-level middleware in the adapter.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next CaseRunner) CaseRunner {
		return CaseRunnerFunc(func(ctx context.Context, req *api.CreateCaseRequest) (*api.Case, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			c, err := next.CreateCase(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.Duration("duration", time.Since(start)),
			}
			if c != nil {
				attrs = append(attrs,
					slog.String("case_id", c.ID),
					slog.Bool("escalated", c.Escalated),
				)
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "case run failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "case run completed", attrs...)
			}

			return c, err
		})
	}
}
