package hiera

import "sync/atomic"

// Stats holds in-process lookup counters (A7), useful for the admin
// surface's health/debug endpoints without pulling in a full metrics
// pipeline, which is explicitly out of scope here.
type Stats struct {
	lookups   atomic.Int64
	cacheHits atomic.Int64
	cacheMiss atomic.Int64
	errors    atomic.Int64
}

func newStats() *Stats { return &Stats{} }

func (s *Stats) recordLookup()    { s.lookups.Add(1) }
func (s *Stats) recordCacheHit()  { s.cacheHits.Add(1) }
func (s *Stats) recordCacheMiss() { s.cacheMiss.Add(1) }
func (s *Stats) recordError()     { s.errors.Add(1) }

// StatsSnapshot is an immutable point-in-time read of Stats.
type StatsSnapshot struct {
	Lookups   int64
	CacheHits int64
	CacheMiss int64
	Errors    int64
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Lookups:   s.lookups.Load(),
		CacheHits: s.cacheHits.Load(),
		CacheMiss: s.cacheMiss.Load(),
		Errors:    s.errors.Load(),
	}
}
