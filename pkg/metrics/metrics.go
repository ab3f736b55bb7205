package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActivitiesRecorded counts tracked admin activities by category.
	ActivitiesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admintrack_activities_recorded_total",
			Help: "Total number of admin activities recorded",
		},
		[]string{"category"},
	)

	// PageVisitsRecorded counts tracked page visits.
	PageVisitsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admintrack_page_visits_recorded_total",
			Help: "Total number of admin page visits recorded",
		},
	)

	// SecurityEvents counts recorded security events by severity.
	SecurityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admintrack_security_events_total",
			Help: "Total number of security events recorded",
		},
		[]string{"severity"},
	)

	// ActiveSessions tracks currently active tracking sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admintrack_active_sessions",
			Help: "Number of active admin tracking sessions",
		},
	)

	// ReportsGenerated counts generated reports by type and output format.
	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admintrack_reports_generated_total",
			Help: "Total number of analytics reports generated",
		},
		[]string{"type", "format"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admintrack_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
