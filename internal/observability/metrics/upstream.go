package metrics

import "github.com/prometheus/client_golang/prometheus"

// UpstreamMetrics counts retries and circuit breaker transitions of calls
// to embedding, completion and messaging services.
type UpstreamMetrics struct {
	retriesTotal       *prometheus.CounterVec
	breakerTransitions *prometheus.CounterVec
}

func newUpstreamMetrics() *UpstreamMetrics {
	return &UpstreamMetrics{
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "retries_total",
				Help:      "Retries issued against upstream services by upstream kind and operation.",
			},
			[]string{"upstream", "operation"},
		),
		breakerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "breaker_transitions_total",
				Help:      "Circuit breaker state transitions by upstream kind, operation and target state.",
			},
			[]string{"upstream", "operation", "to"},
		),
	}
}

func (m *UpstreamMetrics) register(registry *prometheus.Registry) {
	registry.MustRegister(m.retriesTotal, m.breakerTransitions)
}

func (m *UpstreamMetrics) ObserveRetry(upstream, operation string) {
	m.retriesTotal.WithLabelValues(upstream, operation).Inc()
}

func (m *UpstreamMetrics) ObserveBreakerTransition(upstream, operation, to string) {
	m.breakerTransitions.WithLabelValues(upstream, operation, to).Inc()
}
