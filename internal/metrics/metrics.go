// Package metrics provides Prometheus metrics for RiverWatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "riverwatch"
)

// Engine metrics
var (
	// ReadingsEvaluated counts sensor readings run through the rule engine.
	ReadingsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "readings_evaluated_total",
			Help:      "Total sensor readings evaluated against alert rules",
		},
	)

	// RulesTriggered counts rule triggers by condition type.
	RulesTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rules_triggered_total",
			Help:      "Total rule triggers by condition type",
		},
		[]string{"condition"},
	)

	// AlertsCreated counts created alerts by severity.
	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "alerts_created_total",
			Help:      "Total alerts created by severity",
		},
		[]string{"severity"},
	)

	// AlertsSuppressed counts triggers suppressed by the dedup gate.
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "alerts_suppressed_total",
			Help:      "Total triggers suppressed because an active alert already exists",
		},
	)
)

// Dispatch metrics
var (
	// DispatchQueueDepth tracks alerts waiting for notification dispatch.
	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Alerts waiting in the notification dispatch queue",
		},
	)

	// DispatchDropped counts alerts dropped because the dispatch queue was full.
	DispatchDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "dropped_total",
			Help:      "Total alerts dropped due to a full dispatch queue",
		},
	)

	// NotificationsSent counts successful deliveries by channel type.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "notifications_sent_total",
			Help:      "Total notifications delivered by channel type",
		},
		[]string{"channel_type"},
	)

	// NotificationsFailed counts failed deliveries by channel type.
	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "notifications_failed_total",
			Help:      "Total notification failures by channel type",
		},
		[]string{"channel_type"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)
