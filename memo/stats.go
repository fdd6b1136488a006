package memo

import "sync/atomic"

// Stats is a snapshot of a cache's counters.
type Stats struct {
	Hits          uint64 // calls answered from the store
	Misses        uint64 // calls that found no entry
	Shared        uint64 // misses answered by a computation another caller started
	Computations  uint64
	Failures      uint64 // computations that returned an error or panicked
	Evictions     uint64
	Invalidations uint64 // entries removed by Forget and ForgetPrefix
	Verifications uint64
}

// HitRatio returns Hits / (Hits + Misses), or 0 before the first call.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits, misses, shared     atomic.Uint64
	computations, failures   atomic.Uint64
	evictions, invalidations atomic.Uint64
	verifications            atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Shared:        c.shared.Load(),
		Computations:  c.computations.Load(),
		Failures:      c.failures.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Verifications: c.verifications.Load(),
	}
}
