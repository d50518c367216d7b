package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Well-known metric names. The publish failure counter exists so operators
// can detect sustained publish failures that the publisher itself swallows.
const (
	EventsPublished        = "events_published"
	PublishFailures        = "publish_failures"
	ProjectionsApplied     = "projections_applied"
	ProjectionFailures     = "projection_failures"
	PeerCallsShortCircuit  = "peer_calls_short_circuited"
	PeerCallFailures       = "peer_call_failures"
	QueryReadModelHits     = "query_read_model_hits"
	QueryWriteModelHits    = "query_write_model_hits"
	QueryPeerHits          = "query_peer_hits"
	QueryNotFound          = "query_not_found"
	SagaStepsRecorded      = "saga_steps_recorded"
	SagaPendingStale       = "saga_pending_stale"
	EnrichmentFallbacks    = "enrichment_fallbacks"
)

// timer aggregates duration measurements for one name.
type timer struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

// Metrics is a process-local metrics collector. Counters and gauges are
// updated with atomics; the maps are guarded by a read-write mutex only for
// slot creation.
type Metrics struct {
	mu        sync.RWMutex
	counters  map[string]*int64
	gauges    map[string]*int64
	timers    map[string]*timer
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:  make(map[string]*int64),
		gauges:    make(map[string]*int64),
		timers:    make(map[string]*timer),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	atomic.AddInt64(m.counterSlot(name), value)
}

// CounterValue returns the current value of a counter (0 when never written).
func (m *Metrics) CounterValue(name string) int64 {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(counter)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if gauge, exists = m.gauges[name]; !exists {
			var g int64
			gauge = &g
			m.gauges[name] = gauge
		}
		m.mu.Unlock()
	}

	atomic.StoreInt64(gauge, value)
}

// RecordTimer records a timing measurement
func (m *Metrics) RecordTimer(name string, duration time.Duration) {
	durationMs := duration.Milliseconds()

	m.mu.RLock()
	t, exists := m.timers[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if t, exists = m.timers[name]; !exists {
			t = &timer{minTimeMs: durationMs, maxTimeMs: durationMs}
			m.timers[name] = t
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	t.count++
	t.totalTimeMs += durationMs
	if durationMs < t.minTimeMs {
		t.minTimeMs = durationMs
	}
	if durationMs > t.maxTimeMs {
		t.maxTimeMs = durationMs
	}
	m.mu.Unlock()
}

// Snapshot returns a point-in-time view of all metrics for the /metrics
// endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(c)
	}

	gauges := make(map[string]int64, len(m.gauges))
	for name, g := range m.gauges {
		gauges[name] = atomic.LoadInt64(g)
	}

	timers := make(map[string]map[string]int64, len(m.timers))
	for name, t := range m.timers {
		avg := int64(0)
		if t.count > 0 {
			avg = t.totalTimeMs / t.count
		}
		timers[name] = map[string]int64{
			"count":           t.count,
			"total_time_ms":   t.totalTimeMs,
			"average_time_ms": avg,
			"min_time_ms":     t.minTimeMs,
			"max_time_ms":     t.maxTimeMs,
		}
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(m.startTime).Seconds()),
		"counters":       counters,
		"gauges":         gauges,
		"timers":         timers,
	}
}

func (m *Metrics) counterSlot(name string) *int64 {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if counter, exists = m.counters[name]; !exists {
			var c int64
			counter = &c
			m.counters[name] = counter
		}
		m.mu.Unlock()
	}

	return counter
}
