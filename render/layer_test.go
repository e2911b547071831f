package render

import (
	"testing"

	"github.com/lixenwraith/panelkit/core"
)

// stubSurface is a minimal Surface for layer tests
type stubSurface struct {
	width, height int
}

func (s *stubSurface) Size() (int, int) {
	if s.width == 0 && s.height == 0 {
		return 320, 240 // Default panel size
	}
	return s.width, s.height
}

// stubRenderable is a controllable Renderable for tests
type stubRenderable struct {
	bounds      core.Rect
	dirty       bool
	updates     int
	renders     int
	panicUpdate bool
	panicRender bool
}

func (s *stubRenderable) Update(dt float64) {
	if s.panicUpdate {
		panic("update failure")
	}
	s.updates++
}

func (s *stubRenderable) Render(Surface) []core.Rect {
	if s.panicRender {
		panic("render failure")
	}
	s.renders++
	s.dirty = false
	return []core.Rect{s.bounds}
}

func (s *stubRenderable) Bounds() core.Rect { return s.bounds }
func (s *stubRenderable) Dirty() bool       { return s.dirty }

func TestLayerUpdateIsolatesPanics(t *testing.T) {
	l := NewLayer("content")
	bad := &stubRenderable{panicUpdate: true}
	good := &stubRenderable{}
	l.Add(bad)
	l.Add(good)

	failures := l.Update(0.016)

	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	if good.updates != 1 {
		t.Error("member after panicking one must still update")
	}
}

func TestLayerRenderSkipsInvisible(t *testing.T) {
	l := NewLayer("content")
	r := &stubRenderable{dirty: true, bounds: core.Rect{X: 0, Y: 0, W: 5, H: 5}}
	l.Add(r)
	l.SetVisible(false)

	regions, failures := l.Render(&stubSurface{})
	if regions != nil || failures != 0 {
		t.Error("invisible layer must render nothing")
	}
	if r.renders != 0 {
		t.Error("member rendered despite invisible layer")
	}
}

func TestLayerRenderOnlyDirtyMembers(t *testing.T) {
	l := NewLayer("content")
	dirty := &stubRenderable{dirty: true, bounds: core.Rect{X: 0, Y: 0, W: 5, H: 5}}
	clean := &stubRenderable{dirty: false}
	l.Add(dirty)
	l.Add(clean)
	l.Render(&stubSurface{}) // first render clears the layer-level dirty flag

	dirty.dirty = true
	regions, _ := l.Render(&stubSurface{})

	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	if clean.renders != 1 {
		t.Errorf("clean member rendered %d times, want only the initial forced pass", clean.renders)
	}
}

func TestLayerRenderIsolatesPanics(t *testing.T) {
	l := NewLayer("content")
	bad := &stubRenderable{dirty: true, panicRender: true}
	good := &stubRenderable{dirty: true, bounds: core.Rect{X: 1, Y: 1, W: 2, H: 2}}
	l.Add(bad)
	l.Add(good)

	regions, failures := l.Render(&stubSurface{})

	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	if len(regions) != 1 {
		t.Errorf("surviving member regions = %d, want 1", len(regions))
	}
}

func TestLayerDirtyAggregation(t *testing.T) {
	l := NewLayer("content")
	r := &stubRenderable{}
	l.Add(r)
	l.Render(&stubSurface{}) // drain the add-triggered dirty flag

	if l.Dirty() {
		t.Error("layer with clean members should be clean")
	}

	r.dirty = true
	if !l.Dirty() {
		t.Error("member dirty flag must propagate to the layer")
	}

	r.dirty = false
	l.MarkDirty()
	if !l.Dirty() {
		t.Error("layer own flag must report dirty")
	}
}

func TestLayerRemove(t *testing.T) {
	l := NewLayer("content")
	r := &stubRenderable{}
	l.Add(r)

	if !l.Remove(r) {
		t.Fatal("Remove returned false for a member")
	}
	if l.Remove(r) {
		t.Error("second Remove should return false")
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}
