package dispatch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatcher invokes a named ability on a backend server. It returns the
// field updates to merge into the case record and the server identifier
// the call was routed to. Failures never surface as errors; they come
// back as updates of the form {"error": {"kind": ..., "message": ...}}
// with the requested server identifier still set.
type Dispatcher interface {
	Invoke(ctx context.Context, server, ability string, payload map[string]any) (updates map[string]any, serverUsed string)
}

// Prometheus metrics for ability dispatch, shared by all implementations.
var (
	abilityInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseflow_ability_invocations_total",
			Help: "Total ability invocations",
		},
		[]string{"server", "ability", "status"},
	)

	abilityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caseflow_ability_duration_seconds",
			Help:    "Ability invocation duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"server", "ability"},
	)
)

func init() {
	prometheus.MustRegister(
		abilityInvocations,
		abilityDuration,
	)
}

// observe records the outcome and duration of one invocation.
func observe(server, ability, status string, start time.Time) {
	abilityInvocations.WithLabelValues(server, ability, status).Inc()
	abilityDuration.WithLabelValues(server, ability).Observe(time.Since(start).Seconds())
}
