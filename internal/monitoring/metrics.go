package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes for the frames_total counter.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeDropped = "dropped"
)

// Metrics holds all Prometheus metrics for the bridge.
type Metrics struct {
	registry *prometheus.Registry

	// Request path
	FramesTotal   *prometheus.CounterVec
	FrameDuration *prometheus.HistogramVec

	// Transport
	Connected         prometheus.Gauge
	ReconnectAttempts prometheus.Counter
	QueueDepth        prometheus.Gauge
	QueueDropped      prometheus.Counter
	FramesSent        prometheus.Counter
	FramesReceived    prometheus.Counter

	// Extraction caches
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	Uptime    prometheus.Gauge
	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds headline values for the control channel's stats endpoint.
type Snapshot struct {
	FramesHandled  int64   `json:"framesHandled"`
	FrameErrors    int64   `json:"frameErrors"`
	FramesSent     int64   `json:"framesSent"`
	FramesReceived int64   `json:"framesReceived"`
	QueueDepth     int64   `json:"queueDepth"`
	Reconnects     int64   `json:"reconnects"`
	CacheHits      int64   `json:"cacheHits"`
	CacheMisses    int64   `json:"cacheMisses"`
	AvgDurationMS  float64 `json:"avgDurationMs"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`

	totalDuration time.Duration
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		FramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_frames_total",
				Help: "Total request frames handled, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		FrameDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_frame_duration_seconds",
				Help:    "Request frame handling duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"type"},
		),
		Connected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_connected",
				Help: "Whether the assistant connection is open (1) or not (0)",
			},
		),
		ReconnectAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_reconnect_attempts_total",
				Help: "Total reconnection attempts",
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_queue_depth",
				Help: "Frames waiting in the offline queue",
			},
		),
		QueueDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_queue_dropped_total",
				Help: "Frames dropped from the offline queue at capacity",
			},
		),
		FramesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_frames_sent_total",
				Help: "Frames delivered to the assistant",
			},
		),
		FramesReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_frames_received_total",
				Help: "Frames received from the assistant",
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_cache_hits_total",
				Help: "Extraction cache hits",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_cache_misses_total",
				Help: "Extraction cache misses",
			},
		),
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}
}

// Registry returns the Prometheus registry for the control channel.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFrame records one handled request frame.
func (m *Metrics) RecordFrame(frameType, outcome string, duration time.Duration) {
	m.FramesTotal.WithLabelValues(frameType, outcome).Inc()
	m.FrameDuration.WithLabelValues(frameType).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.FramesHandled++
	if outcome == OutcomeError {
		m.snapshot.FrameErrors++
	}
	m.snapshot.totalDuration += duration
	m.mu.Unlock()
}

// RecordConnected records a transport state change.
func (m *Metrics) RecordConnected(connected bool) {
	if connected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

// RecordReconnect records one reconnection attempt.
func (m *Metrics) RecordReconnect() {
	m.ReconnectAttempts.Inc()
	m.mu.Lock()
	m.snapshot.Reconnects++
	m.mu.Unlock()
}

// RecordQueueDepth records the offline queue depth.
func (m *Metrics) RecordQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
	m.mu.Lock()
	m.snapshot.QueueDepth = int64(depth)
	m.mu.Unlock()
}

// RecordQueueDrop records an oldest-frame drop from the full queue.
func (m *Metrics) RecordQueueDrop() {
	m.QueueDropped.Inc()
}

// RecordSent records a frame delivered to the peer.
func (m *Metrics) RecordSent() {
	m.FramesSent.Inc()
	m.mu.Lock()
	m.snapshot.FramesSent++
	m.mu.Unlock()
}

// RecordReceived records a frame received from the peer.
func (m *Metrics) RecordReceived() {
	m.FramesReceived.Inc()
	m.mu.Lock()
	m.snapshot.FramesReceived++
	m.mu.Unlock()
}

// RecordCache records an extraction cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	m.mu.Lock()
	if hit {
		m.snapshot.CacheHits++
	} else {
		m.snapshot.CacheMisses++
	}
	m.mu.Unlock()
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// GetSnapshot returns the current headline values.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	if snap.FramesHandled > 0 {
		snap.AvgDurationMS = float64(snap.totalDuration.Milliseconds()) / float64(snap.FramesHandled)
	}
	uptime := time.Since(m.startTime).Seconds()
	snap.UptimeSeconds = uptime
	m.Uptime.Set(uptime)
	return snap
}
