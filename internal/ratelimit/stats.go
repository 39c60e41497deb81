package ratelimit

import "sync/atomic"

type Stats struct {
	allowed   int64
	rejected  int64
	errors    int64
	fallbacks int64
}

type StatsSnapshot struct {
	Allowed   int64 `json:"allowed"`
	Rejected  int64 `json:"rejected"`
	Errors    int64 `json:"errors"`
	Fallbacks int64 `json:"fallbacks"`
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) record(allowed bool) {
	if allowed {
		atomic.AddInt64(&s.allowed, 1)
		return
	}
	atomic.AddInt64(&s.rejected, 1)
}

func (s *Stats) RecordError() {
	atomic.AddInt64(&s.errors, 1)
}

func (s *Stats) RecordFallback() {
	atomic.AddInt64(&s.fallbacks, 1)
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Allowed:   atomic.LoadInt64(&s.allowed),
		Rejected:  atomic.LoadInt64(&s.rejected),
		Errors:    atomic.LoadInt64(&s.errors),
		Fallbacks: atomic.LoadInt64(&s.fallbacks),
	}
}
