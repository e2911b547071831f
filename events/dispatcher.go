package events

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/panelkit/core"
)

// handlerEntry tracks one registered handler with its diagnostics
type handlerEntry struct {
	id       int
	event    EventType
	global   bool
	priority Priority
	index    int // registration order for stable sort
	filter   Filter
	fn       HandlerFunc

	enabled    atomic.Bool
	calls      atomic.Uint64
	totalNanos atomic.Int64
}

// HandlerStats is a diagnostic snapshot for one handler
type HandlerStats struct {
	ID       int
	Event    EventType
	Global   bool
	Priority Priority
	Calls    uint64
	Total    time.Duration
	Avg      time.Duration
}

// Dispatcher routes queued events to registered handlers
//
// Architecture:
//   - Single-threaded dispatch (frame loop calls Process)
//   - Registration and removal are safe from any goroutine
//   - Global handlers run before type-specific handlers
//   - Within each registry, handlers run in priority order; registration
//     order breaks ties (stable)
//   - The first enabled handler whose filter matches and which returns
//     Handled short-circuits the event
//
// The event source is injected rather than read from a process-wide
// singleton so tests and playback can substitute their own
type Dispatcher struct {
	mu      sync.RWMutex
	queue   *Queue
	typed   map[EventType][]*handlerEntry
	global  []*handlerEntry
	nextID  int
	regSeq  int
	errors  atomic.Uint64
	quit    atomic.Bool
	debug   atomic.Bool
	session recordSession
}

// NewDispatcher creates a dispatcher attached to the given queue and
// installs the built-in system bindings: quit request at PriorityCritical
// and debug toggle at PriorityHigh. Built-ins run ahead of host handlers
// so they cannot be starved
func NewDispatcher(queue *Queue) *Dispatcher {
	d := &Dispatcher{
		queue: queue,
		typed: make(map[EventType][]*handlerEntry),
	}
	d.installBuiltins()
	return d
}

// installBuiltins registers the system-level bindings
func (d *Dispatcher) installBuiltins() {
	d.Register(EventQuit, PriorityCritical, nil, func(Event) Result {
		d.quit.Store(true)
		return Handled
	})
	d.Register(EventDebugToggle, PriorityHigh, nil, func(Event) Result {
		for {
			old := d.debug.Load()
			if d.debug.CompareAndSwap(old, !old) {
				return Handled
			}
		}
	})
}

// Push enqueues an event, stamping capture time if unset
func (d *Dispatcher) Push(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	d.queue.Push(ev)
}

// Register adds a handler for one event type. A nil filter matches every
// event of that type. Returns the handler id for Remove/SetEnabled
func (d *Dispatcher) Register(t EventType, p Priority, filter Filter, fn HandlerFunc) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := d.newEntry(p, filter, fn)
	entry.event = t
	d.typed[t] = insertSorted(d.typed[t], entry)
	return entry.id
}

// RegisterGlobal adds a handler consulted for every event, ahead of
// type-specific handlers
func (d *Dispatcher) RegisterGlobal(p Priority, filter Filter, fn HandlerFunc) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := d.newEntry(p, filter, fn)
	entry.global = true
	d.global = insertSorted(d.global, entry)
	return entry.id
}

// newEntry allocates an entry; caller holds d.mu
func (d *Dispatcher) newEntry(p Priority, filter Filter, fn HandlerFunc) *handlerEntry {
	d.nextID++
	d.regSeq++
	entry := &handlerEntry{
		id:       d.nextID,
		priority: p,
		index:    d.regSeq,
		filter:   filter,
		fn:       fn,
	}
	entry.enabled.Store(true)
	return entry
}

// insertSorted keeps the slice ordered by (priority, registration index)
// via insertion sort
func insertSorted(entries []*handlerEntry, entry *handlerEntry) []*handlerEntry {
	pos := len(entries)
	for i, e := range entries {
		if entry.priority < e.priority || (entry.priority == e.priority && entry.index < e.index) {
			pos = i
			break
		}
	}
	entries = append(entries, nil)
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = entry
	return entries
}

// Remove deletes a handler by id. Returns false if the id is unknown
func (d *Dispatcher) Remove(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for t, entries := range d.typed {
		for i, e := range entries {
			if e.id == id {
				d.typed[t] = append(entries[:i:i], entries[i+1:]...)
				return true
			}
		}
	}
	for i, e := range d.global {
		if e.id == id {
			d.global = append(d.global[:i:i], d.global[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled toggles a handler without removing it
func (d *Dispatcher) SetEnabled(id int, enabled bool) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if e := d.find(id); e != nil {
		e.enabled.Store(enabled)
		return true
	}
	return false
}

// find locates an entry by id; caller holds d.mu
func (d *Dispatcher) find(id int) *handlerEntry {
	for _, entries := range d.typed {
		for _, e := range entries {
			if e.id == id {
				return e
			}
		}
	}
	for _, e := range d.global {
		if e.id == id {
			return e
		}
	}
	return nil
}

// Process dispatches one batch of pending events and returns the ones no
// handler claimed. During playback the live queue is ignored and recorded
// events are released on their original relative timing
func (d *Dispatcher) Process() []Event {
	var batch []Event
	if d.session.playing.Load() {
		batch = d.duePlaybackEvents()
	} else {
		batch = d.queue.Consume()
	}
	if len(batch) == 0 {
		return nil
	}

	var unhandled []Event
	for _, ev := range batch {
		d.maybeRecord(ev)
		if d.dispatch(ev) == NotHandled {
			unhandled = append(unhandled, ev)
		}
	}
	return unhandled
}

// dispatch runs one event through globals then typed handlers
func (d *Dispatcher) dispatch(ev Event) Result {
	d.mu.RLock()
	global := make([]*handlerEntry, len(d.global))
	copy(global, d.global)
	typedSrc := d.typed[ev.Type]
	typed := make([]*handlerEntry, len(typedSrc))
	copy(typed, typedSrc)
	d.mu.RUnlock()

	for _, e := range global {
		if d.invoke(e, ev) == Handled {
			return Handled
		}
	}
	for _, e := range typed {
		if d.invoke(e, ev) == Handled {
			return Handled
		}
	}
	return NotHandled
}

// invoke runs a single handler with panic isolation and timing
func (d *Dispatcher) invoke(e *handlerEntry, ev Event) (res Result) {
	if !e.enabled.Load() {
		return NotHandled
	}
	if e.filter != nil && !e.filter(ev) {
		return NotHandled
	}

	start := time.Now()
	defer func() {
		e.calls.Add(1)
		e.totalNanos.Add(time.Since(start).Nanoseconds())
		if r := recover(); r != nil {
			d.errors.Add(1)
			core.Logger().Error("event handler panic",
				"handler", e.id, "event", int(ev.Type), "panic", r)
			res = NotHandled
		}
	}()

	return e.fn(ev)
}

// QuitRequested reports whether the built-in quit binding fired
func (d *Dispatcher) QuitRequested() bool {
	return d.quit.Load()
}

// ResetQuit clears the quit flag for a fresh run
func (d *Dispatcher) ResetQuit() {
	d.quit.Store(false)
}

// DebugEnabled reports the state of the debug toggle binding
func (d *Dispatcher) DebugEnabled() bool {
	return d.debug.Load()
}

// Errors returns the count of handler panics since construction
func (d *Dispatcher) Errors() uint64 {
	return d.errors.Load()
}

// Clear removes every handler and re-installs the built-ins.
// Called on scheduler teardown
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.typed = make(map[EventType][]*handlerEntry)
	d.global = nil
	d.mu.Unlock()

	d.installBuiltins()
}

// Stats returns a deterministic snapshot of handler diagnostics:
// globals first, then typed handlers by (event, priority, registration)
func (d *Dispatcher) Stats() []HandlerStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]HandlerStats, 0, len(d.global))
	for _, e := range d.global {
		out = append(out, snapshotEntry(e))
	}

	types := make([]int, 0, len(d.typed))
	for t := range d.typed {
		types = append(types, int(t))
	}
	sort.Ints(types)
	for _, t := range types {
		for _, e := range d.typed[EventType(t)] {
			out = append(out, snapshotEntry(e))
		}
	}
	return out
}

func snapshotEntry(e *handlerEntry) HandlerStats {
	calls := e.calls.Load()
	total := time.Duration(e.totalNanos.Load())
	var avg time.Duration
	if calls > 0 {
		avg = total / time.Duration(calls)
	}
	return HandlerStats{
		ID:       e.id,
		Event:    e.event,
		Global:   e.global,
		Priority: e.priority,
		Calls:    calls,
		Total:    total,
		Avg:      avg,
	}
}
