package perf

import (
	"time"
)

// Metrics is an immutable snapshot of one performance sample.
// Optional readings (temperature, load, disk) carry a validity flag;
// a failed sensor read simply omits the reading from that sample
type Metrics struct {
	Timestamp time.Time

	// Frame metrics pushed by the scheduler
	FPS        float64
	TargetFPS  float64
	FrameTime  time.Duration
	FrameDrops uint64 // cumulative skipped frames

	// System metrics
	CPUPercent      float64
	HasCPU          bool
	MemoryUsed      uint64 // process RSS bytes
	MemoryPercent   float64
	MemoryAvailable uint64

	Temperature float64 // degrees Celsius
	HasTemp     bool

	Load1   float64
	HasLoad bool

	DiskPercent float64
	HasDisk     bool
}

// history is a fixed-size rolling window of samples, oldest evicted.
// Append happens on the monitor goroutine; readers copy under the
// monitor mutex
type history struct {
	buf   []Metrics
	start int
	count int
}

func newHistory(size int) *history {
	if size < 1 {
		size = 1
	}
	return &history{buf: make([]Metrics, size)}
}

func (h *history) append(m Metrics) {
	idx := (h.start + h.count) % len(h.buf)
	h.buf[idx] = m
	if h.count < len(h.buf) {
		h.count++
	} else {
		h.start = (h.start + 1) % len(h.buf)
	}
}

// last returns up to n most recent samples, oldest first
func (h *history) last(n int) []Metrics {
	if n <= 0 || n > h.count {
		n = h.count
	}
	out := make([]Metrics, 0, n)
	for i := h.count - n; i < h.count; i++ {
		out = append(out, h.buf[(h.start+i)%len(h.buf)])
	}
	return out
}
