package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "statenode"

// Metrics holds the Prometheus collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	emissions   *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the Go and
// process collectors, on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transitions_total",
			Help:      "Total number of successful transitions by machine, from_state and to_state",
		}, []string{"machine", "from_state", "to_state"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rejected_total",
			Help:      "Total number of triggers that resolved to no transition, by machine and state",
		}, []string{"machine", "state"}),
		emissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "emissions_total",
			Help:      "Total number of emitted outputs by machine and state",
		}, []string{"machine", "state"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_errors_total",
			Help:      "Total number of failed state saves by machine",
		}, []string{"machine"}),
	}

	m.registry.MustRegister(
		m.transitions,
		m.rejected,
		m.emissions,
		m.storeErrors,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.Event) {
			m.transitions.WithLabelValues(label(e.Machine), e.From, e.To).Inc()
		},
		OnRejected: func(ctx context.Context, e *domain.Event) {
			m.rejected.WithLabelValues(label(e.Machine), e.From).Inc()
		},
		OnEmit: func(ctx context.Context, e *domain.Event) {
			m.emissions.WithLabelValues(label(e.Machine), e.To).Inc()
		},
		OnStoreError: func(ctx context.Context, e *domain.Event) {
			m.storeErrors.WithLabelValues(label(e.Machine)).Inc()
		},
	}
}

func label(machine string) string {
	if machine == "" {
		return "unnamed"
	}
	return machine
}
