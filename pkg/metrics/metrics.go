// Package metrics defines the Prometheus metrics exported by netgraph.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on the default registry by promauto.
var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netgraph_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netgraph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// DiagramsBuilt counts diagram builds by result ("ok" or "error").
	DiagramsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netgraph_diagrams_built_total",
			Help: "Total number of diagram builds",
		},
		[]string{"result"},
	)

	SimulationTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netgraph_simulation_ticks_total",
			Help: "Total number of simulation ticks emitted to diagrams",
		},
	)

	// PolicyRows counts normalized firewall policy rows by profile.
	PolicyRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netgraph_policy_rows_total",
			Help: "Total number of normalized firewall policy rows",
		},
		[]string{"profile"},
	)

	StoredDocuments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netgraph_stored_documents",
			Help: "Number of documents in the store",
		},
		[]string{"kind"},
	)
)

// RecordHTTPRequest records one completed request.
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordBuild records the outcome of a diagram build.
func RecordBuild(err error) {
	if err != nil {
		DiagramsBuilt.WithLabelValues("error").Inc()
		return
	}
	DiagramsBuilt.WithLabelValues("ok").Inc()
}
