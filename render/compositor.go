package render

import (
	"sync"
)

// layerEntry pairs a layer with its paint priority
type layerEntry struct {
	layer    *Layer
	priority int
	index    int // registration order for stable sort
}

// Compositor orders layers by priority and drives their update/render.
// Lower priority paints first and ends up visually behind; registration
// order breaks ties. The layer list is mutated both by the frame loop
// and by external callers, so mutations are lock-scoped
type Compositor struct {
	mu       sync.RWMutex
	entries  []layerEntry
	regCount int
}

// NewCompositor creates an empty compositor
func NewCompositor() *Compositor {
	return &Compositor{
		entries: make([]layerEntry, 0, 8),
	}
}

// Add registers a layer at the specified priority. Maintains sorted
// order via insertion sort
func (c *Compositor) Add(layer *Layer, priority int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := layerEntry{
		layer:    layer,
		priority: priority,
		index:    c.regCount,
	}
	c.regCount++

	pos := len(c.entries)
	for i, e := range c.entries {
		if priority < e.priority || (priority == e.priority && entry.index < e.index) {
			pos = i
			break
		}
	}

	c.entries = append(c.entries, layerEntry{})
	copy(c.entries[pos+1:], c.entries[pos:])
	c.entries[pos] = entry
}

// Remove detaches the layer with the given name.
// Returns false if no such layer is registered
func (c *Compositor) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.layer.Name() == name {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Layer returns the registered layer with the given name, or nil
func (c *Compositor) Layer(name string) *Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.layer.Name() == name {
			return e.layer
		}
	}
	return nil
}

// Sorted returns the layers in paint order (ascending priority)
func (c *Compositor) Sorted() []*Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Layer, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.layer
	}
	return out
}

// Len returns the number of registered layers
func (c *Compositor) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every layer. Called on scheduler teardown
func (c *Compositor) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = c.entries[:0]
}

// Update advances every layer sequentially in priority order.
// Returns the accumulated per-member failure count
func (c *Compositor) Update(dt float64) int {
	failures := 0
	for _, l := range c.Sorted() {
		failures += l.Update(dt)
	}
	return failures
}

// Render draws visible layers back-to-front and feeds their dirty
// regions into the tracker. Returns the accumulated failure count
func (c *Compositor) Render(surface Surface, tracker *RegionTracker) int {
	failures := 0
	for _, l := range c.Sorted() {
		regions, fails := l.Render(surface)
		failures += fails
		tracker.AddAll(regions)
	}
	return failures
}

// Dirty reports whether any layer needs redrawing
func (c *Compositor) Dirty() bool {
	for _, l := range c.Sorted() {
		if l.Dirty() {
			return true
		}
	}
	return false
}
