package docserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Prometheus collectors of the document API.
type Metrics struct {
	Requests        *prometheus.CounterVec   // labels: route, method, code
	RequestDuration *prometheus.HistogramVec // labels: route, method
	Mutations       *prometheus.CounterVec   // labels: collection, op={create,update,delete}
}

// NewMetrics creates the collectors and registers them with reg together
// with the Go runtime and process collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mywayd",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mywayd",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template and method.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mywayd",
			Name:      "document_mutations_total",
			Help:      "Successful document mutations by collection and operation.",
		}, []string{"collection", "op"}),
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.Mutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
