package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsync",
			Subsystem: "reconciler",
			Name:      "sweeps_total",
			Help:      "Total number of sweeps by result",
		},
		[]string{"result"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "helmsync",
			Subsystem: "reconciler",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of sweeps in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5.5min
		},
	)

	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsync",
			Subsystem: "reconciler",
			Name:      "records_total",
			Help:      "Total number of reconciled records by action and result",
		},
		[]string{"action", "result"},
	)

	managedRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "helmsync",
			Subsystem: "reconciler",
			Name:      "managed_records",
			Help:      "Number of desired-state records seen by the last sweep by status",
		},
		[]string{"status"},
	)

	lastSweepTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "helmsync",
			Subsystem: "reconciler",
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time at which the last completed sweep finished",
		},
	)
)

func init() {
	// Register metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		sweepsTotal,
		sweepDuration,
		recordsTotal,
		managedRecords,
		lastSweepTimestamp,
	)
}

// recordSweepMetric records a finished sweep.
func recordSweepMetric(result string, res *SweepResult) {
	sweepsTotal.WithLabelValues(result).Inc()
	if res == nil {
		return
	}
	sweepDuration.Observe(res.Duration.Seconds())
	lastSweepTimestamp.Set(float64(res.FinishedAt.Unix()))
	managedRecords.WithLabelValues("running").Set(float64(res.Running))
	managedRecords.WithLabelValues("deleted").Set(float64(res.Total - res.Running))
}

// recordRecordMetric records the outcome of one record.
func recordRecordMetric(action Action, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	recordsTotal.WithLabelValues(action.String(), result).Inc()
}

// Metrics helper methods that check enableMetrics before recording.

func (r *Reconciler) recordSweep(result string, res *SweepResult) {
	if r.enableMetrics {
		recordSweepMetric(result, res)
	}
}

func (r *Reconciler) recordRecord(action Action, err error) {
	if r.enableMetrics {
		recordRecordMetric(action, err)
	}
}
