package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/panelkit/core"
	"github.com/lixenwraith/panelkit/events"
	"github.com/lixenwraith/panelkit/render"
	"github.com/lixenwraith/panelkit/status"
)

// Config holds scheduler pacing parameters
type Config struct {
	// TargetFPS is the frame rate the loop paces to
	TargetFPS float64

	// FrameSkipFactor scales the frame interval into the skip budget:
	// when an iteration has already consumed budget*interval before
	// rendering, the render is skipped to protect pacing
	FrameSkipFactor float64

	// MergeThreshold is the gap (in cells) within which dirty regions
	// are coalesced before presentation
	MergeThreshold int

	// PausePollInterval is how long the loop sleeps between state
	// checks while paused
	PausePollInterval time.Duration
}

// DefaultConfig returns pacing defaults for a 30 fps panel
func DefaultConfig() Config {
	return Config{
		TargetFPS:         30,
		FrameSkipFactor:   1.5,
		MergeThreshold:    2,
		PausePollInterval: 50 * time.Millisecond,
	}
}

// FrameSink receives per-frame timing from the scheduler.
// The performance monitor implements it; a nil sink is valid
type FrameSink interface {
	RecordFrame(fps float64, frameTime time.Duration, skipped bool)
}

// Scheduler owns the frame loop: it pulls events through the
// dispatcher, updates and renders layers through the compositor, paces
// to the target frame interval and feeds timing into the sink.
//
// One goroutine runs the loop; Stop/Pause/Resume only flip the state
// flag under the lock and the loop observes it at the top of the next
// iteration. Shutdown latency is therefore bounded by one frame
// interval plus any in-flight render
type Scheduler struct {
	cfg      Config
	interval time.Duration

	dispatcher *events.Dispatcher
	compositor *render.Compositor
	presenter  render.Presenter
	clock      *PausableClock
	tracker    *render.RegionTracker
	sink       FrameSink

	mu    sync.Mutex
	state LoopState
	done  chan struct{}

	history      frameHistory
	mergeRegions atomic.Bool

	// Cached metric pointers
	statFrames  *atomic.Int64
	statSkipped *atomic.Int64
	statErrors  *atomic.Int64
	statFPS     *status.AtomicFloat

	runStart time.Time
	runNanos atomic.Int64
}

// NewScheduler wires a scheduler from its collaborators. A nil registry
// or sink disables the respective output
func NewScheduler(
	cfg Config,
	dispatcher *events.Dispatcher,
	compositor *render.Compositor,
	presenter render.Presenter,
	reg *status.Registry,
) *Scheduler {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = DefaultConfig().TargetFPS
	}
	if cfg.FrameSkipFactor <= 1.0 {
		cfg.FrameSkipFactor = DefaultConfig().FrameSkipFactor
	}
	if cfg.PausePollInterval <= 0 {
		cfg.PausePollInterval = DefaultConfig().PausePollInterval
	}
	if reg == nil {
		reg = status.NewRegistry()
	}

	s := &Scheduler{
		cfg:        cfg,
		interval:   time.Duration(float64(time.Second) / cfg.TargetFPS),
		dispatcher: dispatcher,
		compositor: compositor,
		presenter:  presenter,
		clock:      NewPausableClock(),
		tracker:    render.NewRegionTracker(),
		state:      StateStopped,

		statFrames:  reg.Ints.Get("engine.frames"),
		statSkipped: reg.Ints.Get("engine.skipped"),
		statErrors:  reg.Ints.Get("engine.errors"),
		statFPS:     reg.Floats.Get("engine.fps"),
	}
	s.mergeRegions.Store(true)
	return s
}

// SetFrameSink installs the per-frame timing receiver.
// Must be called before Start
func (s *Scheduler) SetFrameSink(sink FrameSink) {
	s.sink = sink
}

// SetRegionMerging toggles dirty-region coalescing before presentation.
// The adaptive quality controller drives this through its settings
func (s *Scheduler) SetRegionMerging(enabled bool) {
	s.mergeRegions.Store(enabled)
}

// State returns the current loop state
func (s *Scheduler) State() LoopState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddLayer registers a layer with the compositor at the given priority
func (s *Scheduler) AddLayer(layer *render.Layer, priority int) {
	s.compositor.Add(layer, priority)
}

// RemoveLayer detaches a layer by name
func (s *Scheduler) RemoveLayer(name string) bool {
	return s.compositor.Remove(name)
}

// OnEvent registers an event handler through the dispatcher
func (s *Scheduler) OnEvent(t events.EventType, p events.Priority, filter events.Filter, fn events.HandlerFunc) int {
	return s.dispatcher.Register(t, p, filter, fn)
}

// Start launches the frame loop in its own goroutine. runFor limits the
// run duration; zero means run until stopped. Returns an error if the
// scheduler is not in the stopped state
func (s *Scheduler) Start(runFor time.Duration) error {
	s.mu.Lock()
	if s.state != StateStopped {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("start: scheduler is %s, want stopped", state)
	}
	s.state = StateRunning
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.dispatcher.ResetQuit()
	core.Go(func() { s.loop(runFor) })
	return nil
}

// Stop requests cooperative shutdown. Safe from any goroutine;
// returns immediately, the loop observes the flag on its next iteration
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning || s.state == StatePaused {
		s.state = StateStopping
	}
}

// Pause suspends frame work. The loop keeps polling at the pause
// interval; engine time freezes so content sees no dt gap on resume
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StatePaused
		s.clock.Pause()
	}
}

// Resume continues frame work after a pause
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePaused {
		s.state = StateRunning
		s.clock.Resume()
	}
}

// Wait blocks until the loop goroutine has exited.
// Returns immediately if the scheduler never started
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// FPS returns the instantaneous frame rate
func (s *Scheduler) FPS() float64 {
	fps, _, _ := s.history.snapshot()
	return fps
}

// Stats returns a snapshot of the rolling statistics
func (s *Scheduler) Stats() Stats {
	current, average, avgFrame := s.history.snapshot()
	return Stats{
		FramesRendered:   uint64(s.statFrames.Load()),
		FramesSkipped:    uint64(s.statSkipped.Load()),
		CurrentFPS:       current,
		AverageFPS:       average,
		AverageFrameTime: avgFrame,
		Runtime:          time.Duration(s.runNanos.Load()),
		Errors:           uint64(s.statErrors.Load()) + s.dispatcher.Errors(),
	}
}

// loop is the frame loop body. Runs on its own goroutine; the deferred
// teardown guarantees the state machine lands in Stopped even if
// control logic panics
func (s *Scheduler) loop(runFor time.Duration) {
	defer s.teardown()

	s.runStart = time.Now()
	lastEngine := s.clock.Now()

	skipBudget := time.Duration(float64(s.interval) * s.cfg.FrameSkipFactor)

	for {
		s.mu.Lock()
		state := s.state
		s.mu.Unlock()

		if state == StateStopping {
			return
		}
		if state == StatePaused {
			// No work while paused; re-check state after a short sleep
			time.Sleep(s.cfg.PausePollInterval)
			continue
		}

		iterStart := time.Now()
		s.runNanos.Store(int64(time.Since(s.runStart)))

		if runFor > 0 && time.Since(s.runStart) >= runFor {
			s.Stop()
			continue
		}

		// Engine-time delta excludes paused intervals
		engineNow := s.clock.Now()
		dt := engineNow.Sub(lastEngine).Seconds()
		lastEngine = engineNow

		// Events are dispatched strictly before this tick's updates
		unhandled := s.dispatcher.Process()
		if len(unhandled) > 0 {
			core.Logger().Debug("unhandled events", "count", len(unhandled))
		}
		if s.dispatcher.QuitRequested() {
			// Quit short-circuits the rest of the iteration
			s.Stop()
			continue
		}

		if failures := s.compositor.Update(dt); failures > 0 {
			s.statErrors.Add(int64(failures))
		}

		// Frame-skip policy: if the iteration has already blown its
		// budget, skip rendering to protect pacing
		if time.Since(iterStart) > skipBudget {
			s.statSkipped.Add(1)
			if s.sink != nil {
				s.sink.RecordFrame(s.FPS(), time.Since(iterStart), true)
			}
		} else {
			s.renderFrame()
		}

		// Pace to the target frame interval
		if remaining := s.interval - time.Since(iterStart); remaining > 0 {
			time.Sleep(remaining)
		}

		frameTime := time.Since(iterStart)
		s.history.record(frameTime.Seconds())
		s.statFPS.Set(s.FPS())
	}
}

// renderFrame renders all visible layers and presents the dirty area,
// falling back to full presentation when no regions were reported
func (s *Scheduler) renderFrame() {
	if failures := s.compositor.Render(s.presenter, s.tracker); failures > 0 {
		s.statErrors.Add(int64(failures))
	}

	var err error
	if s.tracker.Count() > 0 {
		if s.mergeRegions.Load() {
			s.tracker.Optimize(s.cfg.MergeThreshold)
		}
		err = s.presenter.Present(s.tracker.Regions())
	} else {
		err = s.presenter.PresentAll()
	}
	if err != nil {
		s.statErrors.Add(1)
		core.Logger().Error("present failed", "error", err)
	}

	s.tracker.Clear()
	s.statFrames.Add(1)

	if s.sink != nil {
		current, _, avgFrame := s.history.snapshot()
		s.sink.RecordFrame(current, avgFrame, false)
	}
}

// teardown clears layers and handlers and performs the final
// Stopping -> Stopped transition. Only the loop goroutine runs this
func (s *Scheduler) teardown() {
	s.compositor.Clear()
	s.dispatcher.Clear()
	s.tracker.Clear()

	s.mu.Lock()
	s.state = StateStopped
	done := s.done
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
	core.Logger().Info("scheduler stopped",
		"frames", s.statFrames.Load(), "skipped", s.statSkipped.Load())
}
