package display

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/panelkit/core"
	"github.com/lixenwraith/panelkit/events"
)

// Sink receives translated input events, normally the dispatcher
type Sink interface {
	Push(events.Event)
}

// Screen is the tcell-backed display driver. It is both the render
// target the compositor draws into and the input source feeding the
// dispatcher. Content draws through SetCell/DrawText/FillRect between
// a frame's render and present
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	sink   Sink
	style  tcell.Style

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	// newScreen allows tests to inject a simulation screen
	newScreen func() (tcell.Screen, error)
}

// New creates a display service feeding translated input into sink
func New(sink Sink) *Screen {
	return &Screen{
		sink:      sink,
		style:     tcell.StyleDefault,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		newScreen: tcell.NewScreen,
	}
}

// newWithScreen wires a pre-built screen, used with tcell's
// simulation screen in tests
func newWithScreen(s tcell.Screen, sink Sink) *Screen {
	d := New(sink)
	d.newScreen = func() (tcell.Screen, error) { return s, nil }
	return d
}

// Name implements Service
func (d *Screen) Name() string {
	return "display"
}

// Init implements Service - acquires and initializes the terminal
func (d *Screen) Init() error {
	s, err := d.newScreen()
	if err != nil {
		return fmt.Errorf("display open: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("display init: %w", err)
	}
	s.SetStyle(d.style)
	s.HideCursor()
	s.Clear()

	d.mu.Lock()
	d.screen = s
	d.mu.Unlock()
	return nil
}

// Start implements Service - launches the input polling goroutine
func (d *Screen) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	if d.screen == nil {
		d.mu.Unlock()
		return fmt.Errorf("display not initialized")
	}
	d.running = true
	d.mu.Unlock()

	core.Go(d.pollLoop)
	return nil
}

// Stop implements Service - halts polling and restores the terminal
func (d *Screen) Stop() error {
	d.mu.Lock()
	if !d.running {
		if d.screen != nil {
			d.screen.Fini()
			d.screen = nil
		}
		d.mu.Unlock()
		return nil
	}
	d.running = false
	s := d.screen
	d.mu.Unlock()

	close(d.stopCh)

	// Wake a blocked PollEvent
	s.PostEvent(tcell.NewEventInterrupt(nil))
	<-d.doneCh

	d.mu.Lock()
	if d.screen != nil {
		d.screen.Fini()
		d.screen = nil
	}
	d.mu.Unlock()
	return nil
}

// pollLoop translates tcell input until stopped. A crash here must
// not leave the terminal in raw mode
func (d *Screen) pollLoop() {
	defer close(d.doneCh)

	defer func() {
		if r := recover(); r != nil {
			d.screen.Fini()
			fmt.Fprintf(os.Stderr, "display poll crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}
		d.translate(ev)
	}
}

// translate maps a tcell event onto the dispatcher's event model
func (d *Screen) translate(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyEscape:
			d.sink.Push(events.Event{Type: events.EventQuit})
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			d.sink.Push(events.Event{Type: events.EventQuit})
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'd':
			d.sink.Push(events.Event{Type: events.EventDebugToggle})
		case ev.Key() == tcell.KeyCtrlL:
			d.sink.Push(events.Event{Type: events.EventRefresh})
		case ev.Key() == tcell.KeyRune:
			d.sink.Push(events.Event{
				Type: events.EventInput,
				Data: map[string]any{"rune": string(ev.Rune())},
			})
		default:
			d.sink.Push(events.Event{
				Type: events.EventInput,
				Data: map[string]any{"key": int(ev.Key())},
			})
		}
	case *tcell.EventResize:
		w, h := ev.Size()
		d.sink.Push(events.Event{
			Type: events.EventResize,
			Data: map[string]any{"width": w, "height": h},
		})
	}
}
