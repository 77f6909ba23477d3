// ABOUTME: Prometheus collectors for the HTTP API.
// ABOUTME: Counts requests, submissions by outcome, and imported rows.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

type Metrics struct {
	Requests    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Submissions *prometheus.CounterVec
	ImportRows  *prometheus.CounterVec
}

// NewMetrics registers the API collectors, plus Go runtime and process collectors, with reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bptrack_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bptrack_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bptrack_submissions_total",
			Help: "Single measurement submissions by outcome.",
		}, []string{"outcome"}),
		ImportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bptrack_import_rows_total",
			Help: "CSV import rows by outcome.",
		}, []string{"outcome"}),
	}
}
