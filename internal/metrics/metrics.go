package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "hubsync"
)

var (
	syncDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

	// Sync metrics
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Time taken for an integration sync to complete.",
		Buckets:   syncDurationBuckets,
	}, []string{"integration_type", "integration_id"})

	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Count of sync executions.",
	}, []string{"integration_type", "integration_id", "status"})

	SyncLastSuccessTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful sync.",
	}, []string{"integration_type", "integration_id"})

	SyncItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_items_total",
		Help:      "Number of items pulled across sync runs.",
	}, []string{"integration_type", "integration_id"})

	// Health metrics. 0=unknown, 1=healthy, 2=degraded, 3=unhealthy.
	HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "integration_health_status",
		Help:      "Last observed health state per integration.",
	}, []string{"integration_type", "integration_id"})

	HealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "health_checks_total",
		Help:      "Count of health probes performed.",
	}, []string{"integration_type", "integration_id", "status"})

	// Event bus metrics
	EventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_emitted_total",
		Help:      "Number of lifecycle events published on the hub bus.",
	}, []string{"type"})

	// Registry metrics
	IntegrationsRegistered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "integrations_registered",
		Help:      "Number of integrations currently registered.",
	}, []string{"integration_type"})
)
