package display

import (
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/panelkit/core"
	"github.com/lixenwraith/panelkit/events"
)

type captureSink struct {
	mu  sync.Mutex
	evs []events.Event
}

func (s *captureSink) Push(ev events.Event) {
	s.mu.Lock()
	s.evs = append(s.evs, ev)
	s.mu.Unlock()
}

func (s *captureSink) snapshot() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.evs...)
}

func (s *captureSink) waitFor(t *testing.T, typ events.EventType) events.Event {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range s.snapshot() {
			if ev.Type == typ {
				return ev
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("event type %d never arrived", typ)
	return events.Event{}
}

func newTestScreen(t *testing.T) (*Screen, tcell.SimulationScreen, *captureSink) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	sink := &captureSink{}
	d := newWithScreen(sim, sink)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d, sim, sink
}

func TestKeyTranslation(t *testing.T) {
	d, sim, sink := newTestScreen(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	ev := sink.waitFor(t, events.EventInput)
	if ev.Data["rune"] != "x" {
		t.Errorf("input data = %v", ev.Data)
	}

	sim.InjectKey(tcell.KeyRune, 'd', tcell.ModNone)
	sink.waitFor(t, events.EventDebugToggle)

	sim.InjectKey(tcell.KeyCtrlL, 0, tcell.ModNone)
	sink.waitFor(t, events.EventRefresh)

	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	sink.waitFor(t, events.EventQuit)
}

func TestCtrlCQuits(t *testing.T) {
	d, sim, sink := newTestScreen(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	sim.InjectKey(tcell.KeyCtrlC, 0, tcell.ModNone)
	sink.waitFor(t, events.EventQuit)
}

func TestResizeTranslation(t *testing.T) {
	d, sim, sink := newTestScreen(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	sim.SetSize(120, 40)

	// The screen posts a resize for its initial geometry too, so wait
	// for the one carrying the new size
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range sink.snapshot() {
			if ev.Type == events.EventResize && ev.Data["width"] == 120 {
				if ev.Data["height"] != 40 {
					t.Errorf("resize data = %v", ev.Data)
				}
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("resize event never arrived")
}

func TestDrawAndPresent(t *testing.T) {
	d, sim, _ := newTestScreen(t)
	defer d.Stop()

	d.DrawText(2, 1, "ok", tcell.StyleDefault)
	d.FillRect(core.Rect{X: 0, Y: 3, W: 2, H: 2}, '#', tcell.StyleDefault)
	if err := d.Present([]core.Rect{{X: 0, Y: 0, W: 10, H: 5}}); err != nil {
		t.Fatalf("Present: %v", err)
	}

	cells, w, _ := sim.GetContents()
	at := func(x, y int) rune {
		return cells[y*w+x].Runes[0]
	}
	if at(2, 1) != 'o' || at(3, 1) != 'k' {
		t.Errorf("text cells = %c%c", at(2, 1), at(3, 1))
	}
	if at(0, 3) != '#' || at(1, 4) != '#' {
		t.Errorf("fill cells = %c %c", at(0, 3), at(1, 4))
	}
}

func TestPresentAfterStopFails(t *testing.T) {
	d, _, _ := newTestScreen(t)
	d.Stop()

	if err := d.Present(nil); err == nil {
		t.Error("Present after Stop should fail")
	}
	if err := d.PresentAll(); err == nil {
		t.Error("PresentAll after Stop should fail")
	}
	if w, h := d.Size(); w != 0 || h != 0 {
		t.Errorf("Size after Stop = %dx%d", w, h)
	}
}

func TestStartWithoutInitFails(t *testing.T) {
	d := New(&captureSink{})
	if err := d.Start(); err == nil {
		t.Error("Start before Init should fail")
	}
}

func TestStopIdempotent(t *testing.T) {
	d, _, _ := newTestScreen(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
