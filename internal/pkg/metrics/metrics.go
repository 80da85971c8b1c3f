package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileRuns counts discount reconciliation runs by outcome
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sale_reconcile_runs_total",
			Help: "Discount reconciliation runs by outcome",
		},
		[]string{"outcome"}, // success, failed, skipped
	)

	// ReconcileDuration tracks how long a full run takes
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sale_reconcile_duration_seconds",
			Help: "Duration of discount reconciliation runs in seconds",
			Buckets: []float64{
				0.01, // 10ms
				0.05, // 50ms
				0.1,  // 100ms
				0.25, // 250ms
				0.5,  // 500ms
				1.0,  // 1s
				2.5,  // 2.5s
				5.0,  // 5s
				10.0, // 10s
				30.0, // 30s
				60.0, // 1m
			},
		},
	)

	// PriceUpdateFailures counts per-product discount writes that failed
	PriceUpdateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sale_price_update_failures_total",
			Help: "Product discount price writes that failed during reconciliation",
		},
	)

	// Notifications counts outbound emails by kind and status
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound notifications by kind and status",
		},
		[]string{"kind", "status"}, // kind: sale, restock; status: sent, failed
	)

	// RestockEvents counts restock reconciliations by outcome
	RestockEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restock_events_total",
			Help: "Restock reconciliations by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRun records the outcome and duration of a reconciliation run
func RecordRun(outcome string, seconds float64) {
	ReconcileRuns.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		ReconcileDuration.Observe(seconds)
	}
}

// RecordNotification records a single notification attempt
func RecordNotification(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	Notifications.WithLabelValues(kind, status).Inc()
}
