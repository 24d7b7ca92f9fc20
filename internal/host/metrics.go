package host

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// stateCode maps a module's lifecycle state string to the numeric
// value the Prometheus gauge carries; there is no ordering implied,
// it's just a stable enumeration for the exported series.
var stateCode = map[string]float64{
	"unloaded": 0,
	"loading":  1,
	"enabled":  2,
	"disabled": 3,
	"failed":   4,
}

// Metrics exposes module health as Prometheus gauges on the local
// control surface's optional /metrics endpoint, grounded on the
// teacher's internal/gateway.Metrics counters but promoted to a real
// prometheus/client_golang registry, per SPEC_FULL's domain-stack
// wiring for that dependency.
type Metrics struct {
	registry    *prometheus.Registry
	moduleState *prometheus.GaugeVec
}

// NewMetrics creates an empty, self-registered Metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	moduleState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "waypanel",
		Name:      "module_state",
		Help:      "Current lifecycle state of a module (0=unloaded 1=loading 2=enabled 3=disabled 4=failed).",
	}, []string{"module"})
	reg.MustRegister(moduleState)
	return &Metrics{registry: reg, moduleState: moduleState}
}

// Observe records the current state of every plugin.
func (m *Metrics) Observe(plugins []pluginStatus) {
	for _, p := range plugins {
		m.moduleState.WithLabelValues(p.ID).Set(stateCode[p.State])
	}
}

// Handler returns the http.Handler to mount at /metrics on the local
// control surface.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
