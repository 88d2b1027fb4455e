package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DisputeDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "decisions_total",
			Help:      "Dispute decisions by resulting case status",
		},
		[]string{"status"},
	)

	DisputeExistingCaseTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "existing_case_total",
			Help:      "Dispute requests answered with an already open case",
		},
	)

	CapabilityInvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "capability",
			Name:      "invocation_duration_seconds",
			Help:      "Capability invocation latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"capability", "success"},
	)
)

func init() {
	Registry.MustRegister(DisputeDecisionsTotal, DisputeExistingCaseTotal, CapabilityInvocationDuration)
}
