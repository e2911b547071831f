package events

import (
	"time"
)

// EventType identifies the kind of an engine event
type EventType int

const (
	// EventQuit requests engine shutdown
	// Trigger: host input (Ctrl-C), supervisor signal
	// Consumer: Scheduler via Dispatcher built-in | Data: nil
	EventQuit EventType = iota

	// EventInput carries a raw input report from the display driver
	// Data: "rune" (string) for printable input, "key" (int) otherwise
	EventInput

	// EventTick is a host-injected timing event for content that updates
	// on a coarser cadence than the frame loop
	EventTick

	// EventRefresh requests a full redraw regardless of dirty state
	// Trigger: display reconnect, host command | Data: nil
	EventRefresh

	// EventResize signals output dimension change
	// Data: "width", "height" (int)
	EventResize

	// EventQualityChange announces an adaptive quality transition
	// Data: "level" (int)
	EventQualityChange

	// EventDebugToggle flips the diagnostic overlay
	// Handled by a Dispatcher built-in at PriorityHigh | Data: nil
	EventDebugToggle

	// EventCustomBase is the first type value available to hosts
	// Host-defined types must be >= EventCustomBase
	EventCustomBase EventType = 100
)

// Event is a single engine event with capture metadata
type Event struct {
	Type      EventType
	Data      map[string]any
	Timestamp time.Time
}

// Priority orders handler execution; lower value is serviced first
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// Result is the explicit outcome of a handler invocation
// Handled short-circuits remaining handlers for the event
type Result int

const (
	NotHandled Result = iota
	Handled
)

// HandlerFunc processes a single event
type HandlerFunc func(Event) Result

// Filter decides whether a handler sees an event
// A nil filter matches everything
type Filter func(Event) bool
