package main

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/panelkit/core"
	"github.com/lixenwraith/panelkit/display"
	"github.com/lixenwraith/panelkit/events"
	"github.com/lixenwraith/panelkit/perf"
	"github.com/lixenwraith/panelkit/render"
	"github.com/lixenwraith/panelkit/status"
)

// statusBar renders one line of live panel health at the top row,
// refreshed once per second
type statusBar struct {
	screen     *display.Screen
	reg        *status.Registry
	controller *perf.Controller
	dispatcher *events.Dispatcher

	elapsed float64
	line    string
	dirty   bool
}

func newStatusBar(screen *display.Screen, reg *status.Registry, controller *perf.Controller, dispatcher *events.Dispatcher) *statusBar {
	return &statusBar{
		screen:     screen,
		reg:        reg,
		controller: controller,
		dispatcher: dispatcher,
		dirty:      true,
	}
}

func (b *statusBar) Update(dt float64) {
	b.elapsed += dt
	if b.elapsed < 1.0 && b.line != "" {
		return
	}
	b.elapsed = 0

	fps := b.reg.Floats.Get("engine.fps").Get()
	cpu := b.reg.Floats.Get("perf.cpu").Get()
	mem := b.reg.Floats.Get("perf.memory").Get()
	line := fmt.Sprintf(" fps %5.1f | cpu %5.1f%% | mem %5.1f%% | quality %-8s | q quit  p pause  d debug",
		fps, cpu, mem, b.controller.Level().String())

	// Debug toggle folds raw frame counters into the bar
	if b.dispatcher.DebugEnabled() {
		frames := b.reg.Ints.Get("engine.frames").Load()
		skipped := b.reg.Ints.Get("engine.skipped").Load()
		errors := b.reg.Ints.Get("engine.errors").Load()
		line += fmt.Sprintf(" | frames %d skip %d err %d", frames, skipped, errors)
	}

	if line != b.line {
		b.line = line
		b.dirty = true
	}
}

func (b *statusBar) Render(s render.Surface) []core.Rect {
	w, _ := s.Size()
	if w <= 0 {
		return nil
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGray)
	line := b.line
	for len(line) < w {
		line += " "
	}
	b.screen.DrawText(0, 0, line[:w], style)
	b.dirty = false
	return []core.Rect{{X: 0, Y: 0, W: w, H: 1}}
}

func (b *statusBar) Bounds() core.Rect {
	w, _ := b.screen.Size()
	return core.Rect{X: 0, Y: 0, W: w, H: 1}
}

func (b *statusBar) Dirty() bool {
	return b.dirty
}

// bouncer is a box drifting around the content area, its step rate
// throttled by the active quality level
type bouncer struct {
	screen *display.Screen

	mu   sync.Mutex
	freq float64 // content steps per second

	x, y   float64
	vx, vy float64
	acc    float64
	prev   core.Rect
	dirty  bool
}

const (
	boxW = 8
	boxH = 3
)

func newBouncer(screen *display.Screen, freq float64) *bouncer {
	b := &bouncer{
		screen: screen,
		x:      4, y: 4,
		vx: 14, vy: 6,
		dirty: true,
	}
	b.setFrequency(freq)
	return b
}

// setFrequency retunes the step rate; called from the quality
// controller's callback goroutine
func (b *bouncer) setFrequency(freq float64) {
	if freq <= 0 {
		freq = 1
	}
	b.mu.Lock()
	b.freq = freq
	b.mu.Unlock()
}

func (b *bouncer) stepInterval() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return 1.0 / b.freq
}

func (b *bouncer) Update(dt float64) {
	b.acc += dt
	step := b.stepInterval()

	w, h := b.screen.Size()
	if w <= boxW || h <= boxH+1 {
		return
	}

	for b.acc >= step {
		b.acc -= step
		b.x += b.vx * step
		b.y += b.vy * step

		// Row 0 belongs to the status bar
		if b.x < 0 {
			b.x, b.vx = 0, -b.vx
		}
		if b.x > float64(w-boxW) {
			b.x, b.vx = float64(w-boxW), -b.vx
		}
		if b.y < 1 {
			b.y, b.vy = 1, -b.vy
		}
		if b.y > float64(h-boxH) {
			b.y, b.vy = float64(h-boxH), -b.vy
		}
		b.dirty = true
	}
}

func (b *bouncer) Render(render.Surface) []core.Rect {
	cur := b.Bounds()

	style := tcell.StyleDefault.Foreground(tcell.ColorTeal)
	if !b.prev.Empty() && b.prev != cur {
		b.screen.FillRect(b.prev, ' ', tcell.StyleDefault)
	}
	b.screen.FillRect(cur, '▒', style)

	regions := []core.Rect{cur}
	if !b.prev.Empty() && b.prev != cur {
		regions = append(regions, b.prev)
	}
	b.prev = cur
	b.dirty = false
	return regions
}

func (b *bouncer) Bounds() core.Rect {
	return core.Rect{X: int(b.x), Y: int(b.y), W: boxW, H: boxH}
}

func (b *bouncer) Dirty() bool {
	return b.dirty
}
