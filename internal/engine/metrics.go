package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics
var (
	snapshotWrites = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_snapshot_writes_total", Help: "Persisted snapshot writes"},
	)
	writesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_snapshot_writes_skipped_total", Help: "Writes skipped because the content hash was unchanged"},
	)
	writeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_snapshot_write_failures_total", Help: "Failed snapshot writes"},
	)
	syncApplied = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_sync_applied_total", Help: "Store syncs that replaced the working document"},
	)
	syncSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "display_sync_skipped_total", Help: "Store syncs that changed nothing"},
		[]string{"reason"},
	)
	forceReloads = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_force_reloads_total", Help: "Full context reloads triggered by force-reload signals"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(snapshotWrites, writesSkipped, writeFailures, syncApplied, syncSkipped, forceReloads)
}
