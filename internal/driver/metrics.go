package driver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Operation names used in metrics and errors.
const (
	OpInstallOrUpgrade = "install-or-upgrade"
	OpStatus           = "status"
	OpUninstall        = "uninstall"
)

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsync",
			Subsystem: "driver",
			Name:      "calls_total",
			Help:      "Total number of deployment driver calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	callLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "helmsync",
			Subsystem: "driver",
			Name:      "call_latency_seconds",
			Help:      "Latency of deployment driver calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
		},
		[]string{"operation"},
	)
)

func init() {
	metrics.Registry.MustRegister(callsTotal, callLatency)
}

// RecordCall records a driver call started at start.
func RecordCall(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	callsTotal.WithLabelValues(operation, result).Inc()
	callLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
