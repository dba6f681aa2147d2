package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Requests           uint64
	RequestsByClass    map[string]uint64
	DurationTotalNs    int64
	NetworkErrors      uint64
	CredentialsCleared uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	requests           uint64
	durationTotalNs    int64
	networkErrors      uint64
	credentialsCleared uint64

	mu      sync.Mutex
	byClass map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{byClass: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	byClass := make(map[string]uint64, len(m.byClass))
	for k, v := range m.byClass {
		byClass[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		Requests:           atomic.LoadUint64(&m.requests),
		RequestsByClass:    byClass,
		DurationTotalNs:    atomic.LoadInt64(&m.durationTotalNs),
		NetworkErrors:      atomic.LoadUint64(&m.networkErrors),
		CredentialsCleared: atomic.LoadUint64(&m.credentialsCleared),
	}
}

// ObserveRequest increments the request counters.
func (m *InMemoryRecorder) ObserveRequest(method string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
	atomic.AddInt64(&m.durationTotalNs, duration.Nanoseconds())

	m.mu.Lock()
	m.byClass[StatusClass(status)]++
	m.mu.Unlock()
}

// IncNetworkError increments the network error counter.
func (m *InMemoryRecorder) IncNetworkError() {
	atomic.AddUint64(&m.networkErrors, 1)
}

// IncCredentialCleared increments the cleared credential counter.
func (m *InMemoryRecorder) IncCredentialCleared() {
	atomic.AddUint64(&m.credentialsCleared, 1)
}
