package render

import (
	"sync"

	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Box is a filled rectangle, the software engine's only object kind.
type Box struct {
	Rect  hal.Rect
	Color hal.RGB565
}

// Screen is a render surface's object tree: a background color and a list
// of boxes composited in insertion order. Mutations outside the engine task
// must hold the graphics lock, same as any render-tree access.
type Screen struct {
	mu    sync.Mutex
	w, h  int
	bg    hal.RGB565
	boxes []Box
	dirty hal.Rect
}

func newScreen(w, h int) *Screen {
	return &Screen{
		w:     w,
		h:     h,
		bg:    hal.ColorBlack,
		dirty: hal.Rect{W: w, H: h},
	}
}

// SetBackground sets the fill color behind all boxes.
func (s *Screen) SetBackground(c hal.RGB565) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bg = c
	s.dirty = hal.Rect{W: s.w, H: s.h}
}

// AddBox appends a box and marks its region dirty.
func (s *Screen) AddBox(b Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = append(s.boxes, b)
	s.dirty = s.dirty.Union(b.Rect)
}

// Clear removes all boxes.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = nil
	s.dirty = hal.Rect{W: s.w, H: s.h}
}

// Invalidate marks the whole screen dirty so the next processing step
// repaints it.
func (s *Screen) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = hal.Rect{W: s.w, H: s.h}
}

// takeDirty returns the pending dirty region clipped to the screen and
// resets it. Used by the engine's processing step.
func (s *Screen) takeDirty() hal.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = hal.Rect{}
	if d.Empty() {
		return hal.Rect{}
	}
	return clip(d, s.w, s.h)
}

// renderStrip composites the screen into buf for the given strip region.
// buf is row-major, area.W pixels per row.
func (s *Screen) renderStrip(area hal.Rect, buf []hal.RGB565) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < area.W*area.H; i++ {
		buf[i] = s.bg
	}
	for _, b := range s.boxes {
		r := intersect(b.Rect, area)
		if r.Empty() {
			continue
		}
		for y := r.Y; y < r.Y+r.H; y++ {
			row := (y - area.Y) * area.W
			for x := r.X; x < r.X+r.W; x++ {
				buf[row+x-area.X] = b.Color
			}
		}
	}
}

func clip(r hal.Rect, w, h int) hal.Rect {
	return intersect(r, hal.Rect{W: w, H: h})
}

func intersect(a, b hal.Rect) hal.Rect {
	x0, y0 := max(a.X, b.X), max(a.Y, b.Y)
	x1 := min(a.X+a.W, b.X+b.W)
	y1 := min(a.Y+a.H, b.Y+b.H)
	if x1 <= x0 || y1 <= y0 {
		return hal.Rect{}
	}
	return hal.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
