// Package metric provides Prometheus metrics for inkroom.
//
// It exposes sync-engine and persistence health in Prometheus format:
// connection and room gauges, event and broadcast counters, and snapshot
// write latencies.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Connection metrics
	ConnectionsOpen prometheus.Gauge
	PeersDropped    prometheus.Counter

	// Room metrics
	RoomsResident prometheus.Gauge

	// Event metrics
	EventsAccepted *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec
	Broadcasts     prometheus.Counter

	// Persistence metrics
	SnapshotSaves    prometheus.Counter
	SnapshotFailures prometheus.Counter
	SnapshotDuration prometheus.Histogram
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inkroom_connections_open",
			Help: "Number of currently open client connections.",
		}),
		PeersDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_peers_dropped_total",
			Help: "Connections force-closed because their send buffer stalled.",
		}),
		RoomsResident: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inkroom_rooms_resident",
			Help: "Number of rooms resident in memory.",
		}),
		EventsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkroom_events_accepted_total",
			Help: "Events appended to a room log, by event type.",
		}, []string{"type"}),
		EventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkroom_events_rejected_total",
			Help: "Inbound messages dropped before append, by reason.",
		}, []string{"reason"}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_broadcasts_total",
			Help: "Messages fanned out to room peers.",
		}),
		SnapshotSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_snapshot_saves_total",
			Help: "Successful room snapshot writes.",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_snapshot_failures_total",
			Help: "Failed room snapshot writes.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "inkroom_snapshot_write_seconds",
			Help:    "Room snapshot write duration.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	reg.MustRegister(
		m.ConnectionsOpen,
		m.PeersDropped,
		m.RoomsResident,
		m.EventsAccepted,
		m.EventsRejected,
		m.Broadcasts,
		m.SnapshotSaves,
		m.SnapshotFailures,
		m.SnapshotDuration,
	)

	return m
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Rejection reasons for EventsRejected.
const (
	ReasonRoomMismatch = "room_mismatch"
	ReasonUnknownType  = "unknown_type"
	ReasonStaleCount   = "stale_count"
	ReasonBadPayload   = "bad_payload"
)
