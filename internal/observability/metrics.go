package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the counters the tutoring core reports.
type Metrics struct {
	Registry *prometheus.Registry

	Turns         *prometheus.CounterVec
	BackendErrors *prometheus.CounterVec
	Deltas        prometheus.Counter
	PlanSaves     *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

// NewMetrics builds the counters on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coollearn",
			Name:      "turns_total",
			Help:      "Session transitions by kind (plan, user, shortcut, assistant, load, reset).",
		}, []string{"kind"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coollearn",
			Name:      "backend_errors_total",
			Help:      "Failed backend calls by operation.",
		}, []string{"op"}),
		Deltas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coollearn",
			Name:      "stream_deltas_total",
			Help:      "Deltas consumed from backend streams.",
		}),
		PlanSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coollearn",
			Name:      "plan_saves_total",
			Help:      "Plan store writes by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coollearn",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	m.Registry.MustRegister(
		m.Turns,
		m.BackendErrors,
		m.Deltas,
		m.PlanSaves,
		m.HTTPRequests,
		collectors.NewGoCollector(),
	)
	return m
}
