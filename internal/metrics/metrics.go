// Package metrics provides Prometheus instrumentation for saved-response
// dispatches: how many responses went out per mode and outcome, which
// follow-up steps degraded, and how long each dispatch took.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DispatchTotal counts finished dispatches, labeled by mode
	// ("comment", "message", "post") and status.
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "savedresponse_dispatch_total",
		Help: "Total number of saved-response dispatches by mode and status",
	}, []string{"mode", "status"})

	// StepFailures counts non-fatal follow-up steps that failed.
	StepFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "savedresponse_step_failures_total",
		Help: "Follow-up steps (distinguish, lock, note, archive) that failed after delivery",
	}, []string{"step"}) // step = "distinguish", "lock", "note", "internal_note", "archive", "sticky"

	// DispatchDuration records wall time of a dispatch in seconds, host calls included.
	DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "savedresponse_dispatch_duration_seconds",
		Help:    "Duration of a saved-response dispatch in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
	}, []string{"mode"})
)

func init() {
	prometheus.MustRegister(
		DispatchTotal,
		StepFailures,
		DispatchDuration,
	)
}
