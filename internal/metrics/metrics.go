package metrics

import (
	"sync/atomic"
)

// Metrics tracks operational metrics.
type Metrics struct {
	RemoteCalls            uint64 `json:"remote_calls"`
	RemoteErrors           uint64 `json:"remote_errors"`
	RateLimitShortCircuits uint64 `json:"rate_limit_short_circuits"`
	FetchBatches           uint64 `json:"fetch_batches"`
	PartialFailures        uint64 `json:"partial_failures"`
	RequestsServed         uint64 `json:"requests_served"`
}

var global = &Metrics{}

// RemoteCall increments the count of remote API calls issued.
func RemoteCall() { atomic.AddUint64(&global.RemoteCalls, 1) }

// RemoteError increments the count of remote API calls that failed.
func RemoteError() { atomic.AddUint64(&global.RemoteErrors, 1) }

// RateLimitShortCircuit increments the count of calls refused locally
// because the tracked rate limit was exhausted.
func RateLimitShortCircuit() { atomic.AddUint64(&global.RateLimitShortCircuits, 1) }

// FetchBatch increments the count of multi-repository fetch batches.
func FetchBatch() { atomic.AddUint64(&global.FetchBatches, 1) }

// PartialFailure increments the count of repositories dropped from a batch.
func PartialFailure() { atomic.AddUint64(&global.PartialFailures, 1) }

// RequestServed increments the count of dashboard API requests served.
func RequestServed() { atomic.AddUint64(&global.RequestsServed, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		RemoteCalls:            atomic.LoadUint64(&global.RemoteCalls),
		RemoteErrors:           atomic.LoadUint64(&global.RemoteErrors),
		RateLimitShortCircuits: atomic.LoadUint64(&global.RateLimitShortCircuits),
		FetchBatches:           atomic.LoadUint64(&global.FetchBatches),
		PartialFailures:        atomic.LoadUint64(&global.PartialFailures),
		RequestsServed:         atomic.LoadUint64(&global.RequestsServed),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.RemoteCalls, 0)
	atomic.StoreUint64(&global.RemoteErrors, 0)
	atomic.StoreUint64(&global.RateLimitShortCircuits, 0)
	atomic.StoreUint64(&global.FetchBatches, 0)
	atomic.StoreUint64(&global.PartialFailures, 0)
	atomic.StoreUint64(&global.RequestsServed, 0)
}
