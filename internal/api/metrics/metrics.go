// Package metrics defines and registers all custom Prometheus metrics for the
// delivery service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry on package
// initialisation and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "delivery"

// ── Ingestion metrics ─────────────────────────────────────────────────────────

// SamplesAcceptedTotal counts position samples applied to the tracking store.
// Label:
//   - transport: the ingress that carried the sample ("http" or "websocket")
var SamplesAcceptedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_accepted_total",
		Help:      "Total number of position samples accepted.",
	},
	[]string{"transport"},
)

// SamplesRejectedTotal counts position samples that never reached the store.
// Labels:
//   - transport: "http" or "websocket"
//   - reason: "missing_delivery_id", "invalid_position", "forbidden", "store"
var SamplesRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_rejected_total",
		Help:      "Total number of position samples rejected.",
	},
	[]string{"transport", "reason"},
)

// IngestQueueDepth tracks the number of streamed samples waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var IngestQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ingest_queue_depth",
		Help:      "Current number of streamed samples pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// IngestDuration measures the time to apply and publish one sample.
// Label:
//   - result: "accepted" or "rejected"
var IngestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Duration of sample ingestion from coercion to publication.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	},
	[]string{"result"},
)

// TrackedDeliveries is the number of deliveries with a live tracking state.
var TrackedDeliveries = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_deliveries",
		Help:      "Number of deliveries currently held in the tracking store.",
	},
)

// RetentionEvictionsTotal counts deliveries dropped from the tracking store.
// Label:
//   - cause: "forget" (explicit completion) or "sweep" (idle timeout)
var RetentionEvictionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_evictions_total",
		Help:      "Total number of deliveries evicted from the tracking store.",
	},
	[]string{"cause"},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// RealtimeConnections is the number of open websocket connections.
var RealtimeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Number of open websocket connections.",
	},
)

// RealtimeSubscriptions is the number of (connection, topic) memberships.
// Label:
//   - namespace: "delivery" or "order"
var RealtimeSubscriptions = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_subscriptions",
		Help:      "Number of active topic memberships.",
	},
	[]string{"namespace"},
)

// BroadcastFramesTotal counts frames handed to subscriber send buffers.
// Labels:
//   - namespace: "delivery" or "order"
//   - result: "sent" or "dropped" (subscriber too slow, disconnected)
var BroadcastFramesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_frames_total",
		Help:      "Total number of broadcast frames by outcome.",
	},
	[]string{"namespace", "result"},
)

// ── Routing metrics ───────────────────────────────────────────────────────────

// RouteRequestsTotal counts calls to the external routing provider.
// Label:
//   - result: "ok" or "error"
var RouteRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_requests_total",
		Help:      "Total number of routing provider requests by outcome.",
	},
	[]string{"result"},
)

// RouteRequestDuration measures routing provider latency.
var RouteRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "route_request_duration_seconds",
		Help:      "Duration of routing provider requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// DirectoryCacheTotal counts delivery directory cache lookups.
// Label:
//   - result: "hit" or "miss"
var DirectoryCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "directory_cache_total",
		Help:      "Total number of delivery directory cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)
