package perf

import (
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/panelkit/core"
	"github.com/lixenwraith/panelkit/status"
)

// Thresholds are the static warning limits evaluated every sample
type Thresholds struct {
	MinFPS           float64
	MaxCPUPercent    float64
	MaxMemoryPercent float64
	MaxTemperature   float64
	MaxFrameDrops    uint64 // drops accumulated between two samples
}

// MonitorConfig holds sampling parameters
type MonitorConfig struct {
	Interval    time.Duration
	HistorySize int
	TargetFPS   float64
	Thresholds  Thresholds
}

// DefaultMonitorConfig returns sampling defaults for an embedded panel
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:    2 * time.Second,
		HistorySize: 60,
		TargetFPS:   30,
		Thresholds: Thresholds{
			MinFPS:           20,
			MaxCPUPercent:    85,
			MaxMemoryPercent: 85,
			MaxTemperature:   75,
			MaxFrameDrops:    10,
		},
	}
}

// WarningFunc receives threshold breaches with the triggering sample
type WarningFunc func(warnings []string, m Metrics)

// Monitor samples frame timing and system health on a dedicated
// goroutine. Frame metrics arrive from the scheduler through
// RecordFrame (lock-free); system metrics come from the platform
// prober. History is guarded by a mutex scoped to append/copy
type Monitor struct {
	cfg    MonitorConfig
	prober Prober

	mu        sync.Mutex
	hist      *history
	warnFns   []WarningFunc
	sampleFns []func(Metrics)

	// degradeFn is invoked on memory threshold breach, wired to the
	// quality controller's forced degrade
	degradeFn func()

	// Frame feed written by the scheduler loop
	fps        status.AtomicFloat
	frameNanos atomic.Int64
	drops      atomic.Uint64
	prevDrops  uint64 // monitor goroutine only

	// Cached metric pointers
	statCPU  *status.AtomicFloat
	statMem  *status.AtomicFloat
	statTemp *status.AtomicFloat

	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewMonitor creates a monitor with the platform prober.
// A nil registry disables metric export
func NewMonitor(cfg MonitorConfig, reg *status.Registry) *Monitor {
	return newMonitorWithProber(cfg, reg, NewSystemProber())
}

// newMonitorWithProber allows tests to inject a deterministic prober
func newMonitorWithProber(cfg MonitorConfig, reg *status.Registry, prober Prober) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMonitorConfig().Interval
	}
	if cfg.HistorySize < 1 {
		cfg.HistorySize = DefaultMonitorConfig().HistorySize
	}
	if reg == nil {
		reg = status.NewRegistry()
	}

	return &Monitor{
		cfg:      cfg,
		prober:   prober,
		hist:     newHistory(cfg.HistorySize),
		stopChan: make(chan struct{}),
		statCPU:  reg.Floats.Get("perf.cpu"),
		statMem:  reg.Floats.Get("perf.memory"),
		statTemp: reg.Floats.Get("perf.temperature"),
	}
}

// OnWarning registers a threshold-breach callback
func (m *Monitor) OnWarning(fn WarningFunc) {
	m.mu.Lock()
	m.warnFns = append(m.warnFns, fn)
	m.mu.Unlock()
}

// OnSample registers a callback invoked on every sample, breach or
// not. The adaptive quality controller feeds from this
func (m *Monitor) OnSample(fn func(Metrics)) {
	m.mu.Lock()
	m.sampleFns = append(m.sampleFns, fn)
	m.mu.Unlock()
}

// SetDegradeFunc wires the forced quality degrade invoked when the
// memory threshold is breached
func (m *Monitor) SetDegradeFunc(fn func()) {
	m.mu.Lock()
	m.degradeFn = fn
	m.mu.Unlock()
}

// RecordFrame receives per-frame timing from the scheduler.
// Implements the scheduler's frame sink; lock-free, called every frame
func (m *Monitor) RecordFrame(fps float64, frameTime time.Duration, skipped bool) {
	m.fps.Set(fps)
	m.frameNanos.Store(int64(frameTime))
	if skipped {
		m.drops.Add(1)
	}
}

// Name identifies the monitor in the service group
func (m *Monitor) Name() string {
	return "monitor"
}

// Init performs a priming probe so the first interval sample has a
// CPU delta to diff against. Never fails: a dead prober just reports
// metrics without validity flags
func (m *Monitor) Init() error {
	m.prober.Sample()
	return nil
}

// Start launches the sampling goroutine
func (m *Monitor) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("monitor already running")
	}
	m.wg.Add(1)
	core.Go(m.sampleLoop)
	return nil
}

// Stop halts sampling. Idempotent
func (m *Monitor) Stop() error {
	m.stopOnce.Do(func() {
		if m.running.CompareAndSwap(true, false) {
			close(m.stopChan)
			m.wg.Wait()
		}
	})
	return nil
}

// sampleLoop collects one sample per interval until stopped
func (m *Monitor) sampleLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample collects, stores and evaluates one metrics snapshot
func (m *Monitor) sample() {
	sys := m.prober.Sample()

	metrics := Metrics{
		Timestamp:  time.Now(),
		FPS:        m.fps.Get(),
		TargetFPS:  m.cfg.TargetFPS,
		FrameTime:  time.Duration(m.frameNanos.Load()),
		FrameDrops: m.drops.Load(),

		CPUPercent:      sys.cpuPercent,
		HasCPU:          sys.hasCPU,
		MemoryUsed:      sys.procRSS,
		MemoryPercent:   sys.memPercent,
		MemoryAvailable: sys.memAvailable,
		Temperature:     sys.temperature,
		HasTemp:         sys.hasTemp,
		Load1:           sys.load1,
		HasLoad:         sys.hasLoad,
		DiskPercent:     sys.diskPercent,
		HasDisk:         sys.hasDisk,
	}

	m.statCPU.Set(metrics.CPUPercent)
	m.statMem.Set(metrics.MemoryPercent)
	if metrics.HasTemp {
		m.statTemp.Set(metrics.Temperature)
	}

	warnings := m.evaluate(metrics)

	m.mu.Lock()
	m.hist.append(metrics)
	warnFns := append([]WarningFunc(nil), m.warnFns...)
	sampleFns := append([]func(Metrics){}, m.sampleFns...)
	degrade := m.degradeFn
	m.mu.Unlock()

	for _, fn := range sampleFns {
		fn(metrics)
	}

	if len(warnings) == 0 {
		return
	}

	for _, w := range warnings {
		core.Logger().Warn("performance warning", "warning", w)
	}
	for _, fn := range warnFns {
		fn(warnings, metrics)
	}

	// Memory pressure gets the degrade-and-hint path instead of an error
	if metrics.MemoryPercent >= m.cfg.Thresholds.MaxMemoryPercent && degrade != nil {
		degrade()
		debug.FreeOSMemory()
	}
}

// evaluate checks static thresholds; monitor goroutine only
func (m *Monitor) evaluate(metrics Metrics) []string {
	t := m.cfg.Thresholds
	var warnings []string

	if t.MinFPS > 0 && metrics.FPS > 0 && metrics.FPS < t.MinFPS {
		warnings = append(warnings, fmt.Sprintf("low fps: %.1f < %.1f", metrics.FPS, t.MinFPS))
	}
	if t.MaxCPUPercent > 0 && metrics.HasCPU && metrics.CPUPercent > t.MaxCPUPercent {
		warnings = append(warnings, fmt.Sprintf("high cpu: %.1f%% > %.1f%%", metrics.CPUPercent, t.MaxCPUPercent))
	}
	if t.MaxMemoryPercent > 0 && metrics.MemoryPercent > t.MaxMemoryPercent {
		warnings = append(warnings, fmt.Sprintf("high memory: %.1f%% > %.1f%%", metrics.MemoryPercent, t.MaxMemoryPercent))
	}
	if t.MaxTemperature > 0 && metrics.HasTemp && metrics.Temperature > t.MaxTemperature {
		warnings = append(warnings, fmt.Sprintf("high temperature: %.1f°C > %.1f°C", metrics.Temperature, t.MaxTemperature))
	}
	if t.MaxFrameDrops > 0 && metrics.FrameDrops-m.prevDrops > t.MaxFrameDrops {
		warnings = append(warnings, fmt.Sprintf("excessive frame drops: %d in last interval", metrics.FrameDrops-m.prevDrops))
	}
	m.prevDrops = metrics.FrameDrops

	return warnings
}

// History returns a copy of the rolling sample window, oldest first
func (m *Monitor) History() []Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.last(0)
}

// Average returns mean metrics over the last window samples
// (zero window means the whole history)
func (m *Monitor) Average(window int) Metrics {
	m.mu.Lock()
	samples := m.hist.last(window)
	m.mu.Unlock()

	if len(samples) == 0 {
		return Metrics{}
	}

	var avg Metrics
	avg.Timestamp = samples[len(samples)-1].Timestamp
	avg.TargetFPS = samples[len(samples)-1].TargetFPS
	var frame time.Duration
	var cpuN, tempN int
	for _, s := range samples {
		avg.FPS += s.FPS
		frame += s.FrameTime
		avg.MemoryPercent += s.MemoryPercent
		// Failed sensor reads carry zeros; averaging them in would
		// dilute the mean, so only flagged-valid samples count
		if s.HasCPU {
			avg.CPUPercent += s.CPUPercent
			cpuN++
		}
		if s.HasTemp {
			avg.Temperature += s.Temperature
			tempN++
		}
	}
	n := float64(len(samples))
	avg.FPS /= n
	avg.FrameTime = frame / time.Duration(len(samples))
	avg.MemoryPercent /= n
	if cpuN > 0 {
		avg.CPUPercent /= float64(cpuN)
		avg.HasCPU = true
	}
	if tempN > 0 {
		avg.Temperature /= float64(tempN)
		avg.HasTemp = true
	}
	return avg
}

// Stable reports whether fps standard deviation over the last window
// samples stays within maxStdDev
func (m *Monitor) Stable(window int, maxStdDev float64) bool {
	m.mu.Lock()
	samples := m.hist.last(window)
	m.mu.Unlock()

	if len(samples) < 2 {
		return false
	}

	var sum float64
	for _, s := range samples {
		sum += s.FPS
	}
	mean := sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := s.FPS - mean
		variance += d * d
	}
	variance /= float64(len(samples))

	return math.Sqrt(variance) <= maxStdDev
}
