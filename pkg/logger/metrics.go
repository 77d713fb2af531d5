package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics shared across the engine and the HTTP surface.

var (
	// BarsFinalized counts closed bars per symbol and timeframe.
	BarsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bars_finalized_total",
			Help: "Total number of finalized OHLCV bars",
		},
		[]string{"symbol", "timeframe"},
	)

	// UpdatesDispatched counts indicator updates delivered to subscribers,
	// labeled provisional or final.
	UpdatesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indicator_updates_dispatched_total",
			Help: "Total number of indicator updates dispatched to subscribers",
		},
		[]string{"kind"},
	)

	// ActiveSubscriptions tracks live subscriptions across all symbols.
	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_subscriptions",
			Help: "Number of live indicator subscriptions",
		},
	)

	// RequestDuration measures HTTP request latency on the API surface.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestTotal counts HTTP requests on the API surface.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)
