package engine

import "time"

// TimeProvider abstracts the clock so tests can drive time explicitly
type TimeProvider interface {
	Now() time.Time
}

// MonotonicTimeProvider returns real system time with monotonic clock
// readings. Used for pacing and statistics that must not pause
type MonotonicTimeProvider struct{}

// NewMonotonicTimeProvider creates a new monotonic time provider
func NewMonotonicTimeProvider() *MonotonicTimeProvider {
	return &MonotonicTimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *MonotonicTimeProvider) Now() time.Time {
	return time.Now()
}
