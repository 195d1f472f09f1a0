package core

import (
	"math"
	"sync/atomic"
)

// GuardCounter counts non-finite intermediate values that were replaced with
// zero. It is safe for concurrent use and is surfaced in job diagnostics so
// that NaN/Inf never propagate silently into a published result.
type GuardCounter struct {
	count atomic.Int64
}

// Guard returns v unchanged when it is finite, otherwise records the event
// and returns zero.
func (g *GuardCounter) Guard(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		g.count.Add(1)
		return 0
	}
	return v
}

// Count returns the number of guarded values so far.
func (g *GuardCounter) Count() int64 {
	return g.count.Load()
}

// Reset clears the counter.
func (g *GuardCounter) Reset() {
	g.count.Store(0)
}
