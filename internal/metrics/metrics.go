// Package metrics holds the Prometheus collectors shared by the binaries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shift_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shift_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	Broadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shift_broadcasts_total",
			Help: "Broadcast deliveries per sink and outcome",
		},
		[]string{"sink", "event", "status"},
	)

	Jobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shift_jobs_total",
			Help: "Processed jobs per kind and outcome",
		},
		[]string{"kind", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shift_cache_lookups_total",
			Help: "List cache lookups per key and result",
		},
		[]string{"key", "result"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shift_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	HubClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shift_realtime_clients",
			Help: "Connected realtime subscribers",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
