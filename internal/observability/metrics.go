package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	transitionCount map[string]int64
	sweepCount      map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		transitionCount: make(map[string]int64),
		sweepCount:      make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts applied or rejected state transitions.
func (m *Metrics) RecordTransition(operation, outcome string) {
	if m == nil {
		return
	}
	key := operation + "|" + outcome
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCount[key]++
}

// RecordSweep counts sweep executions and the transitions they triggered.
func (m *Metrics) RecordSweep(name string, escalated int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepCount[name+"|runs"]++
	m.sweepCount[name+"|escalated"] += int64(escalated)
}

// SweepCount returns the counter for a sweep key (used by probes/tests).
func (m *Metrics) SweepCount(name, kind string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepCount[name+"|"+kind]
}
