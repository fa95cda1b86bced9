package triage

import "sync/atomic"

// Metrics counts outcomes that never surface as errors, so absorbed failures
// on the non-critical paths stay observable.
type Metrics struct {
	repliesSent       atomic.Int64
	composeFailures   atomic.Int64
	writeBackFailures atomic.Int64
	notifyFailures    atomic.Int64
	dispatchFailures  atomic.Int64
}

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	RepliesSent       int64 `json:"replies_sent"`
	ComposeFailures   int64 `json:"compose_failures"`
	WriteBackFailures int64 `json:"write_back_failures"`
	NotifyFailures    int64 `json:"notify_failures"`
	DispatchFailures  int64 `json:"dispatch_failures"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RepliesSent:       m.repliesSent.Load(),
		ComposeFailures:   m.composeFailures.Load(),
		WriteBackFailures: m.writeBackFailures.Load(),
		NotifyFailures:    m.notifyFailures.Load(),
		DispatchFailures:  m.dispatchFailures.Load(),
	}
}

func (m *Metrics) recordReplySent()       { m.repliesSent.Add(1) }
func (m *Metrics) recordComposeFailure()  { m.composeFailures.Add(1) }
func (m *Metrics) recordWriteBackFailure() { m.writeBackFailures.Add(1) }
func (m *Metrics) recordNotifyFailure()   { m.notifyFailures.Add(1) }
func (m *Metrics) recordDispatchFailure() { m.dispatchFailures.Add(1) }
