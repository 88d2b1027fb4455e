package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Key-value store operation latency in seconds, retries included",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"table", "operation", "status"},
	)

	StoreThrottleRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "throttle_retries_total",
			Help:      "Number of store calls retried after a throttling error",
		},
		[]string{"table", "operation"},
	)
)

func init() {
	Registry.MustRegister(StoreOperationDuration, StoreThrottleRetries)
}
