// Package metrics instruments the client and serves /metrics and /health.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client-side counters. Each process gets its own registry
// so tests can create as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	Events      *prometheus.CounterVec
	ParseErrors prometheus.Counter
	Reconnects  prometheus.Counter
	Commands    *prometheus.CounterVec
}

// New creates and registers the counter set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomwatch_events_total",
				Help: "Event stream messages received, by event type",
			},
			[]string{"type"},
		),
		ParseErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "roomwatch_parse_errors_total",
				Help: "Event stream frames discarded as malformed JSON",
			},
		),
		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "roomwatch_reconnects_total",
				Help: "Event stream reconnect attempts",
			},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomwatch_commands_total",
				Help: "Control commands sent, by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(m.Events, m.ParseErrors, m.Reconnects, m.Commands)
	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
