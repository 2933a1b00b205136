package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	digestRequestsTotal  *prometheus.CounterVec
	digestLatencySeconds *prometheus.HistogramVec
	digestErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the serve mode.
func RegisterMetrics() {
	registerOnce.Do(func() {
		digestRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digest_requests_total",
			Help: "Total number of digest API requests served.",
		}, []string{"method", "route", "status"})

		digestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digest_latency_seconds",
			Help:    "Latency distribution for digest API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		digestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digest_errors_total",
			Help: "Total number of error responses returned by digest endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(digestRequestsTotal, digestLatencySeconds, digestErrorsTotal)
	})
}

// Requests exposes the request counter.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return digestRequestsTotal
}

// Latency exposes the latency histogram.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return digestLatencySeconds
}

// Errors exposes the error counter.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return digestErrorsTotal
}
