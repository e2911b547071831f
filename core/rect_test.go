package core

import "testing"

func TestRectEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"positive", Rect{0, 0, 10, 10}, false},
		{"zero width", Rect{5, 5, 0, 10}, true},
		{"zero height", Rect{5, 5, 10, 0}, true},
		{"negative", Rect{0, 0, -3, 4}, true},
		{"unit", Rect{0, 0, 1, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.r.Empty(); got != tt.want {
			t.Errorf("%s: Empty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{10, 10, 50, 50}
	b := Rect{30, 30, 50, 50}

	got := a.Union(b)
	want := Rect{10, 10, 70, 70}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}

	// Union with a degenerate rect returns the other operand unchanged
	if got := a.Union(Rect{}); got != a {
		t.Errorf("Union with empty = %+v, want %+v", got, a)
	}
	if got := (Rect{}).Union(b); got != b {
		t.Errorf("empty Union b = %+v, want %+v", got, b)
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{0, 0, 10, 10}

	if !a.Intersects(Rect{5, 5, 10, 10}) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(Rect{10, 0, 5, 5}) {
		t.Error("edge-adjacent rects share no area")
	}
	if a.Intersects(Rect{20, 20, 5, 5}) {
		t.Error("disjoint rects should not intersect")
	}
	if a.Intersects(Rect{5, 5, 0, 0}) {
		t.Error("degenerate rect never intersects")
	}
}

func TestRectNear(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{12, 0, 5, 5} // 2-cell gap

	if a.Near(b, 1) {
		t.Error("gap of 2 should not be near with threshold 1")
	}
	if !a.Near(b, 3) {
		t.Error("gap of 2 should be near with threshold 3")
	}
	if !a.Near(Rect{5, 5, 10, 10}, 0) {
		t.Error("overlapping rects are always near")
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{10, 10, 5, 5}
	if !r.Contains(10, 10) {
		t.Error("top-left corner is inside")
	}
	if r.Contains(15, 15) {
		t.Error("bottom-right edge is exclusive")
	}
	if r.Contains(9, 12) {
		t.Error("left of rect is outside")
	}
}
