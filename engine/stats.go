package engine

import (
	"sync"
	"time"
)

// fpsWindow is the number of frame samples in the rolling average
const fpsWindow = 100

// Stats is a point-in-time snapshot of scheduler statistics
type Stats struct {
	FramesRendered   uint64
	FramesSkipped    uint64
	CurrentFPS       float64
	AverageFPS       float64
	AverageFrameTime time.Duration
	Runtime          time.Duration
	Errors           uint64
}

// frameHistory keeps the rolling frame-time window.
// The loop goroutine writes; Stats readers take the lock briefly
type frameHistory struct {
	mu      sync.Mutex
	samples [fpsWindow]float64 // frame durations in seconds
	next    int
	count   int
	last    float64
}

// record stores one measured frame duration
func (h *frameHistory) record(seconds float64) {
	if seconds <= 0 {
		return
	}
	h.mu.Lock()
	h.samples[h.next] = seconds
	h.next = (h.next + 1) % fpsWindow
	if h.count < fpsWindow {
		h.count++
	}
	h.last = seconds
	h.mu.Unlock()
}

// snapshot returns current fps, rolling average fps and average frame time
func (h *frameHistory) snapshot() (current, average float64, avgFrame time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last > 0 {
		current = 1.0 / h.last
	}
	if h.count == 0 {
		return current, 0, 0
	}

	var sum float64
	for i := 0; i < h.count; i++ {
		sum += h.samples[i]
	}
	mean := sum / float64(h.count)
	if mean > 0 {
		average = 1.0 / mean
	}
	return current, average, time.Duration(mean * float64(time.Second))
}
