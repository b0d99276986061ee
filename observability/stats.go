// Package observability aggregates relay counters for the stats endpoint.
package observability

import "sync/atomic"

// RelayStats tracks what the relay has done since boot. All counters are
// atomic; a snapshot is cheap enough to serve on every /stats call.
type RelayStats struct {
	Registered    atomic.Uint64
	Evicted       atomic.Uint64
	Posted        atomic.Uint64
	Censored      atomic.Uint64
	Deleted       atomic.Uint64
	Edited        atomic.Uint64
	SweepFailures atomic.Uint64
}

func NewRelayStats() *RelayStats {
	return &RelayStats{}
}

type Snapshot struct {
	Registered    uint64 `json:"participants_registered"`
	Evicted       uint64 `json:"participants_evicted"`
	Posted        uint64 `json:"messages_posted"`
	Censored      uint64 `json:"messages_censored"`
	Edited        uint64 `json:"messages_edited"`
	Deleted       uint64 `json:"messages_deleted"`
	SweepFailures uint64 `json:"sweep_failures"`
}

func (s *RelayStats) Snapshot() Snapshot {
	return Snapshot{
		Registered:    s.Registered.Load(),
		Evicted:       s.Evicted.Load(),
		Posted:        s.Posted.Load(),
		Censored:      s.Censored.Load(),
		Edited:        s.Edited.Load(),
		Deleted:       s.Deleted.Load(),
		SweepFailures: s.SweepFailures.Load(),
	}
}
