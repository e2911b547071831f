package render

import (
	"github.com/lixenwraith/panelkit/core"
)

// RegionTracker accumulates the rectangles that need redrawing for one
// frame. The union is cached and invalidated on any mutation; the
// tracker is cleared after presentation.
//
// Not safe for concurrent use; only the frame loop touches it
type RegionTracker struct {
	regions    []core.Rect
	union      core.Rect
	unionValid bool
}

// NewRegionTracker creates an empty tracker
func NewRegionTracker() *RegionTracker {
	return &RegionTracker{
		regions: make([]core.Rect, 0, 16),
	}
}

// Add records a region needing redraw. Degenerate rectangles are ignored
func (t *RegionTracker) Add(r core.Rect) {
	if r.Empty() {
		return
	}
	t.regions = append(t.regions, r)
	t.unionValid = false
}

// AddAll records every rectangle in the slice
func (t *RegionTracker) AddAll(rects []core.Rect) {
	for _, r := range rects {
		t.Add(r)
	}
}

// Union returns the minimal bounding rectangle covering all tracked
// regions, lazily recomputed and cached until the next mutation.
// Returns a degenerate rect when nothing is tracked
func (t *RegionTracker) Union() core.Rect {
	if t.unionValid {
		return t.union
	}

	var u core.Rect
	for _, r := range t.regions {
		u = u.Union(r)
	}
	t.union = u
	t.unionValid = true
	return u
}

// Optimize merges overlapping or near rectangles (within threshold
// cells) in a single greedy pass: each rectangle joins at most one
// group. The result is a less tight cover with fewer presentation
// calls, which wins on slow output paths
func (t *RegionTracker) Optimize(threshold int) {
	if len(t.regions) < 2 {
		return
	}

	merged := make([]core.Rect, 0, len(t.regions))
	used := make([]bool, len(t.regions))

	for i, r := range t.regions {
		if used[i] {
			continue
		}
		group := r
		for j := i + 1; j < len(t.regions); j++ {
			if used[j] {
				continue
			}
			if group.Near(t.regions[j], threshold) {
				group = group.Union(t.regions[j])
				used[j] = true
			}
		}
		merged = append(merged, group)
	}

	t.regions = merged
	t.unionValid = false
}

// Clear resets the tracker for the next frame
func (t *RegionTracker) Clear() {
	t.regions = t.regions[:0]
	t.unionValid = false
}

// Regions returns the tracked rectangles
func (t *RegionTracker) Regions() []core.Rect {
	return t.regions
}

// Count returns the number of tracked rectangles
func (t *RegionTracker) Count() int {
	return len(t.regions)
}
