// Package metrics holds the Prometheus collectors of the dispute service.
// Everything registers on Registry, which /metrics serves; the global
// default registry is not used.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "disputes"

var Registry = prometheus.NewRegistry()

// BuildInfo exposes the running version as a constant 1 gauge.
var BuildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Version of the running dispute service",
	},
	[]string{"version", "store_backend"},
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		BuildInfo,
	)
}

// SetBuildInfo records the version and store backend of this process.
func SetBuildInfo(version, storeBackend string) {
	BuildInfo.Reset()
	BuildInfo.WithLabelValues(version, storeBackend).Set(1)
}
