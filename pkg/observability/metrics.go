// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the caseflow service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StageBuckets defines histogram buckets suited for pipeline stage
// latencies, ranging from 1ms to 30s. Local abilities finish in
// microseconds; MCP-backed ones can take seconds.
var StageBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseflow_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caseflow_request_duration_seconds",
			Help:    "Request duration",
			Buckets: StageBuckets,
		},
		[]string{"method", "route"},
	)

	// PipelineRunsActive tracks the number of pipeline runs in flight.
	PipelineRunsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "caseflow_pipeline_runs_active",
			Help: "Pipeline runs in flight",
		},
	)

	// PipelineRunsTotal counts completed pipeline runs by outcome
	// (resolved or escalated).
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseflow_pipeline_runs_total",
			Help: "Completed pipeline runs",
		},
		[]string{"outcome"},
	)

	// PipelineDuration records full pipeline run duration in seconds.
	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caseflow_pipeline_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: StageBuckets,
		},
	)

	// StageDuration records per-stage execution duration in seconds.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caseflow_stage_duration_seconds",
			Help:    "Stage execution duration",
			Buckets: StageBuckets,
		},
		[]string{"stage"},
	)

	// EscalationsTotal counts runs handed off to a human.
	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caseflow_escalations_total",
			Help: "Escalated cases",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseflow_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		PipelineRunsActive,
		PipelineRunsTotal,
		PipelineDuration,
		StageDuration,
		EscalationsTotal,
		RateLimitRejectedTotal,
	)
}
