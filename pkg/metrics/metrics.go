package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by flow (login|register) and result.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"flow", "result"},
	)

	// ActiveSessions tracks sessions that are neither expired nor revoked.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// WorkspaceAccessChecks counts membership checks by result (allowed|denied|error).
	WorkspaceAccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_workspace_access_checks_total",
			Help: "Total number of workspace membership checks",
		},
		[]string{"result"},
	)

	// FileUploads counts uploads by result (success|failure).
	FileUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_file_uploads_total",
			Help: "Total number of file uploads",
		},
		[]string{"result"},
	)

	// FileListFailures counts storage listing failures that were answered with an empty list.
	FileListFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_file_list_failures_total",
			Help: "Storage listing failures swallowed by the file repository",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huddle_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
