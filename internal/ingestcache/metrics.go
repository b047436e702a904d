package ingestcache

import "sync/atomic"

// Metrics is a point-in-time snapshot of cache counters.
type Metrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Refreshes int64 `json:"refreshes"`
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (m Metrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total) * 100.0
}

type internalMetrics struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Refreshes atomic.Int64
}
