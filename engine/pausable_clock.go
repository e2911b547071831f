package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// PausableClock provides pausable engine time with pause duration
// tracking. Frame dt is derived from this clock, so content sees no
// time advance across a pause/resume cycle
type PausableClock struct {
	mu sync.RWMutex
	tp TimeProvider

	// Base time tracking
	realStartTime   time.Time // When clock was created (real time)
	engineStartTime time.Time // Engine time epoch (adjusted for pauses)

	// Pause state
	isPaused        atomic.Bool
	pauseStartTime  time.Time     // When current pause started (real time)
	totalPausedTime time.Duration // Cumulative pause duration
}

// NewPausableClock creates a new pausable clock on monotonic time
func NewPausableClock() *PausableClock {
	return NewPausableClockWithProvider(NewMonotonicTimeProvider())
}

// NewPausableClockWithProvider creates a clock on an explicit time
// source, used with MockTimeProvider in tests
func NewPausableClockWithProvider(tp TimeProvider) *PausableClock {
	now := tp.Now()
	return &PausableClock{
		tp:              tp,
		realStartTime:   now,
		engineStartTime: now,
	}
}

// Now returns current engine time (affected by pause)
func (pc *PausableClock) Now() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if pc.isPaused.Load() {
		// During pause: return frozen time at pause point
		return pc.engineStartTime.Add(pc.pauseStartTime.Sub(pc.realStartTime) - pc.totalPausedTime)
	}

	// Engine elapsed = real elapsed - total paused time
	realElapsed := pc.tp.Now().Sub(pc.realStartTime)
	return pc.engineStartTime.Add(realElapsed - pc.totalPausedTime)
}

// RealTime returns actual wall clock time (unaffected by pause)
func (pc *PausableClock) RealTime() time.Time {
	return pc.tp.Now()
}

// Pause stops engine time advancement
func (pc *PausableClock) Pause() {
	if pc.isPaused.CompareAndSwap(false, true) {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		pc.pauseStartTime = pc.tp.Now()
	}
}

// Resume continues engine time advancement
func (pc *PausableClock) Resume() {
	if pc.isPaused.CompareAndSwap(true, false) {
		pc.mu.Lock()
		defer pc.mu.Unlock()

		if !pc.pauseStartTime.IsZero() {
			pc.totalPausedTime += pc.tp.Now().Sub(pc.pauseStartTime)
			pc.pauseStartTime = time.Time{}
		}
	}
}

// IsPaused returns current pause state
func (pc *PausableClock) IsPaused() bool {
	return pc.isPaused.Load()
}

// TotalPauseDuration returns cumulative pause time including any
// in-progress pause
func (pc *PausableClock) TotalPauseDuration() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	total := pc.totalPausedTime
	if pc.isPaused.Load() && !pc.pauseStartTime.IsZero() {
		total += pc.tp.Now().Sub(pc.pauseStartTime)
	}
	return total
}
