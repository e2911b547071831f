package display

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/panelkit/core"
)

// Size implements the render surface
func (d *Screen) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return 0, 0
	}
	return d.screen.Size()
}

// Present flushes drawn content. tcell tracks damage per cell, so the
// regions only document what changed; the flush itself is minimal
// either way
func (d *Screen) Present(regions []core.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return errClosed
	}
	d.screen.Show()
	return nil
}

// PresentAll repaints every cell, recovering from terminal corruption
func (d *Screen) PresentAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return errClosed
	}
	d.screen.Sync()
	return nil
}

// SetCell draws one rune
func (d *Screen) SetCell(x, y int, ch rune, style tcell.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return
	}
	d.screen.SetContent(x, y, ch, nil, style)
}

// DrawText draws a string left to right starting at x,y
func (d *Screen) DrawText(x, y int, text string, style tcell.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return
	}
	col := x
	for _, ch := range text {
		d.screen.SetContent(col, y, ch, nil, style)
		col++
	}
}

// FillRect fills a rectangle with one rune
func (d *Screen) FillRect(r core.Rect, ch rune, style tcell.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			d.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

// Clear erases all content without flushing
func (d *Screen) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen == nil {
		return
	}
	d.screen.Clear()
}
