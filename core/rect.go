package core

// Rect is an axis-aligned rectangle in output coordinates
// A Rect with zero or negative width/height is degenerate and covers nothing
type Rect struct {
	X, Y int // Top-left corner
	W, H int // Dimensions
}

// Empty returns true if the rectangle has no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Area returns the covered area in cells/pixels
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Contains returns true if the point (x, y) lies inside the rectangle
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersects returns true if the two rectangles share any area
// Degenerate rectangles never intersect anything
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// Near returns true if the rectangles overlap or their gap is within
// threshold cells on both axes. Used by region merging to coalesce
// redraws that are cheaper presented as one
func (r Rect) Near(other Rect, threshold int) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	grown := Rect{
		X: r.X - threshold,
		Y: r.Y - threshold,
		W: r.W + 2*threshold,
		H: r.H + 2*threshold,
	}
	return grown.Intersects(other)
}

// Union returns the smallest rectangle containing both r and other
// A degenerate operand contributes nothing
func (r Rect) Union(other Rect) Rect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x1 := min(r.X, other.X)
	y1 := min(r.Y, other.Y)
	x2 := max(r.X+r.W, other.X+other.W)
	y2 := max(r.Y+r.H, other.Y+other.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}
