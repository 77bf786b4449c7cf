// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_relay_request_duration_seconds",
			Help:    "Total time taken for requests in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90},
		},
		[]string{"endpoint"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_relay_upstream_duration_seconds",
			Help:    "Time taken by a single upstream attempt in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
		},
		[]string{"model"},
	)

	// outcome is one of success, rejected, failed, transport_error
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_upstream_attempts_total",
			Help: "Upstream attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_fallbacks_total",
			Help: "Times a model was abandoned for the next candidate",
		},
		[]string{"model"},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_error_count",
			Help: "Error count",
		},
		[]string{"endpoint", "code"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
