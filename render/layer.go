package render

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/panelkit/core"
)

// Layer is an ordered, independently toggleable group of renderables
// composited together. Members keep insertion order; a panicking member
// is isolated and never aborts the rest of the frame
type Layer struct {
	name string

	mu      sync.Mutex
	members []Renderable

	visible atomic.Bool
	dirty   atomic.Bool
}

// NewLayer creates a visible, clean layer with the given identity
func NewLayer(name string) *Layer {
	l := &Layer{name: name}
	l.visible.Store(true)
	return l
}

// Name returns the layer identity
func (l *Layer) Name() string {
	return l.name
}

// Add appends a renderable. The layer holds a non-owning reference;
// the caller keeps lifetime responsibility
func (l *Layer) Add(r Renderable) {
	l.mu.Lock()
	l.members = append(l.members, r)
	l.mu.Unlock()
	l.dirty.Store(true)
}

// Remove detaches a renderable. Returns false if it was not a member
func (l *Layer) Remove(r Renderable) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, m := range l.members {
		if m == r {
			l.members = append(l.members[:i:i], l.members[i+1:]...)
			l.dirty.Store(true)
			return true
		}
	}
	return false
}

// Len returns the member count
func (l *Layer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.members)
}

// SetVisible toggles the layer. An invisible layer still updates but
// is skipped entirely during render
func (l *Layer) SetVisible(v bool) {
	l.visible.Store(v)
	if v {
		l.dirty.Store(true)
	}
}

// Visible reports the visibility flag
func (l *Layer) Visible() bool {
	return l.visible.Load()
}

// MarkDirty forces a redraw of the layer on the next frame
func (l *Layer) MarkDirty() {
	l.dirty.Store(true)
}

// Dirty reports whether the layer or any member needs redrawing
func (l *Layer) Dirty() bool {
	if l.dirty.Load() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.members {
		if m.Dirty() {
			return true
		}
	}
	return false
}

// snapshot copies the member slice so update/render iterate without
// holding the lock across renderable calls
func (l *Layer) snapshot() []Renderable {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Renderable, len(l.members))
	copy(out, l.members)
	return out
}

// Update advances every member by dt seconds. A member panic is logged
// and counted; remaining members still update. Returns the failure count
func (l *Layer) Update(dt float64) int {
	failures := 0
	for _, m := range l.snapshot() {
		if !updateMember(l.name, m, dt) {
			failures++
		}
	}
	return failures
}

func updateMember(layer string, m Renderable, dt float64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			core.Logger().Error("renderable update panic", "layer", layer, "panic", r)
			ok = false
		}
	}()
	m.Update(dt)
	return true
}

// Render draws every dirty member and returns the regions they touched
// plus the failure count. An invisible layer renders nothing
func (l *Layer) Render(surface Surface) ([]core.Rect, int) {
	if !l.visible.Load() {
		return nil, 0
	}

	forced := l.dirty.Swap(false)

	var regions []core.Rect
	failures := 0
	for _, m := range l.snapshot() {
		if !forced && !m.Dirty() {
			continue
		}
		rects, ok := renderMember(l.name, m, surface)
		if !ok {
			failures++
			continue
		}
		regions = append(regions, rects...)
	}
	return regions, failures
}

func renderMember(layer string, m Renderable, surface Surface) (rects []core.Rect, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			core.Logger().Error("renderable render panic", "layer", layer, "panic", r)
			rects, ok = nil, false
		}
	}()
	return m.Render(surface), true
}
