package feeds

import "github.com/prometheus/client_golang/prometheus"

// Metrics
var (
	pollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_feed_poll_cycles_total", Help: "Completed feed poll cycles"},
	)
	pollChanges = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "display_feed_poll_changes_total", Help: "Poll cycles where the combined payload changed"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(pollCycles, pollChanges)
}
