package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-command request counts and latencies.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the API client collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directadmin_api_requests_total",
				Help: "Total number of DirectAdmin API requests",
			},
			[]string{"command", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "directadmin_api_request_duration_seconds",
				Help:    "DirectAdmin API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command", "method"},
		),
	}
}

func (m *Metrics) observe(command, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(command, method, status).Inc()
	m.requestDuration.WithLabelValues(command, method).Observe(d.Seconds())
}
