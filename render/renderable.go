package render

import (
	"github.com/lixenwraith/panelkit/core"
)

// Surface is the opaque drawing target owned by the host application.
// The engine never allocates or interprets pixel data; concrete drivers
// (display package, host hardware) extend this with drawing operations
type Surface interface {
	// Size returns output dimensions in cells or pixels
	Size() (width, height int)
}

// Presenter is a Surface that can push completed frames to the output.
// The scheduler presents only dirty regions when content reports them
type Presenter interface {
	Surface

	// Present pushes the given regions to the output
	Present(regions []core.Rect) error

	// PresentAll pushes the entire surface, used when no regions were
	// reported or after a forced refresh
	PresentAll() error
}

// Renderable is the capability contract for anything that can be
// updated and drawn. Content objects (clock faces, tickers, gauges)
// implement it; Layer aggregates them.
//
// Lifetime is owned by the caller; the engine holds a non-owning
// reference while the layer is attached. Renderables are only ever
// touched from the frame loop and need not be thread-safe
type Renderable interface {
	// Update advances content state by dt seconds
	Update(dt float64)

	// Render draws onto the surface and returns the regions it touched.
	// Returning no regions means the caller falls back to full presentation
	Render(surface Surface) []core.Rect

	// Bounds returns the rectangle the content occupies
	Bounds() core.Rect

	// Dirty reports whether the content changed since it was last drawn
	Dirty() bool
}
