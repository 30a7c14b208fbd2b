// Package observability holds Prometheus collectors and OpenTelemetry setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "social_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// AggregateSaves counts whole-user saves by result (ok, conflict, error).
	AggregateSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_aggregate_saves_total",
		Help: "Total number of User aggregate saves by result",
	}, []string{"result"})

	// FanoutDeliveries counts per-participant message deliveries by result.
	FanoutDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_message_fanout_deliveries_total",
		Help: "Total number of message copies delivered to participants by result",
	}, []string{"result"})

	// EmailsSent counts outgoing emails by transport and result.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_emails_sent_total",
		Help: "Total number of emails handed to a transport by result",
	}, []string{"transport", "result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "social_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
