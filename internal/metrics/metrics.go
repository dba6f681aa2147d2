// Package metrics provides lightweight hooks for instrumentation.
package metrics

import (
	"strconv"
	"time"
)

// Recorder captures metric events for API calls.
// Implementations can expose these to Prometheus, tests, etc.
type Recorder interface {
	// ObserveRequest records a completed HTTP exchange. status is 0 when
	// no response was received.
	ObserveRequest(method string, status int, duration time.Duration)
	// IncNetworkError counts requests that produced no response.
	IncNetworkError()
	// IncCredentialCleared counts credentials dropped after a 401.
	IncCredentialCleared()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// StatusClass buckets a status code into "2xx".."5xx", or "none" without a response.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}
