// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for server monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metric keys updated by the event loop.
const (
	MetricAccepted       = "sessions.accepted"
	MetricActive         = "sessions.active"
	MetricClosed         = "sessions.closed"
	MetricAcceptFailures = "accept.failures"
	MetricRegFailures    = "registry.failures"
	MetricMessagesIn     = "messages.in"
	MetricMessagesOut    = "messages.out"
	MetricBytesIn        = "bytes.in"
	MetricBytesOut       = "bytes.out"
	MetricQueueOverflows = "queue.overflows"
	MetricPolls          = "reactor.polls"
	MetricEvents         = "reactor.events"
)

// MetricsRegistry holds integer counters and gauges.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]int64
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]int64),
	}
}

// Add increments key by delta.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.mu.Lock()
	mr.metrics[key] += delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value int64) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Get returns the current value of key.
func (mr *MetricsRegistry) Get(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.metrics[key]
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]int64, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated is the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// String renders "k=v" pairs sorted by key, for log lines.
func (mr *MetricsRegistry) String() string {
	snap := mr.GetSnapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(snap[k], 10))
	}
	return b.String()
}
