// Package metrics holds the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments. One instance is created per
// server with its own registry so parallel test servers do not collide.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	FitDuration   *prometheus.HistogramVec
	RelayTotal    *prometheus.CounterVec
}

// New creates and registers all instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_requests_total",
				Help: "HTTP requests handled, by path and status code",
			},
			[]string{"path", "status"},
		),
		FitDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forecast_fit_duration_seconds",
				Help:    "Model fit and forecast duration, by engine",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),
		RelayTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_sms_relay_total",
				Help: "SMS relay attempts, by outcome",
			},
			[]string{"outcome"},
		),
	}
}
