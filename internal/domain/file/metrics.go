package file

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts lifecycle operations by outcome; result is
	// "ok" or the error code reported to clients.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_file_operations_total",
		Help: "Lifecycle operations on tracked files",
	}, []string{"op", "result"})

	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_sync_runs_total",
		Help: "Reconciliation runs by outcome",
	}, []string{"result"})

	syncChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_sync_changes_total",
		Help: "Records added or deleted by reconciliation",
	}, []string{"kind"})

	syncDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filevault_sync_duration_seconds",
		Help:    "Reconciliation duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		_, result = Classify(err)
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}
