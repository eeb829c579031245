package metrics

import "github.com/prometheus/client_golang/prometheus"

var UpstreamRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cryptomaniac_upstream_requests_total",
		Help: "market data API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

var UpstreamRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "cryptomaniac_upstream_request_duration_seconds",
		Help:    "market data API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

var ListingsGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "cryptomaniac_listings",
		Help: "number of listings in the last successful market poll",
	})

var WebsocketClientsGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "cryptomaniac_websocket_clients",
		Help: "connected websocket clients by stream",
	}, []string{"stream"})

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		ListingsGauge,
		WebsocketClientsGauge,
	)
}
