// Package metrics exposes the platform's counters and histograms over
// Prometheus's default registry, served the same way the teacher's
// pkg/node wires promhttp.Handler() onto its HTTP mux.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histogram a Runtime reports against.
type Metrics struct {
	deployTotal *prometheus.CounterVec
	spawnTotal  *prometheus.CounterVec
	callTotal   *prometheus.CounterVec
	verifyTotal *prometheus.CounterVec
	gasUsed     prometheus.Histogram
}

// New registers and returns the platform's metrics on the default
// registry.
func New() *Metrics {
	return &Metrics{
		deployTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "svm_deploy_total",
			Help: "Deploy operations by outcome.",
		}, []string{"outcome"}),
		spawnTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "svm_spawn_total",
			Help: "Spawn operations by outcome.",
		}, []string{"outcome"}),
		callTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "svm_call_total",
			Help: "Call operations by outcome.",
		}, []string{"outcome"}),
		verifyTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "svm_verify_total",
			Help: "Verify operations by outcome.",
		}, []string{"outcome"}),
		gasUsed: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "svm_gas_used",
			Help:    "Gas charged per successful operation.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// ObserveDeploy records a Deploy outcome.
func (m *Metrics) ObserveDeploy(success bool) {
	m.deployTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

// ObserveSpawn records a Spawn outcome.
func (m *Metrics) ObserveSpawn(success bool) {
	m.spawnTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

// ObserveCall records a Call outcome.
func (m *Metrics) ObserveCall(success bool) {
	m.callTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

// ObserveVerify records a Verify outcome.
func (m *Metrics) ObserveVerify(success bool) {
	m.verifyTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

// ObserveGasUsed records the gas charged for a successful operation.
func (m *Metrics) ObserveGasUsed(gas uint64) {
	m.gasUsed.Observe(float64(gas))
}
