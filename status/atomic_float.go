package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a lock-free float64 stored as raw IEEE-754 bits.
// The zero value reads as 0.0.
type AtomicFloat struct {
	bits atomic.Uint64
}

// Set stores val atomically.
func (f *AtomicFloat) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Get returns the current value.
func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add adds delta via a CAS loop and returns the resulting value.
func (f *AtomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}