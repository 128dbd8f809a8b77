package gfx

import (
	"time"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
	"github.com/go-tab5/tab5duino/pkg/render"
)

// withLock runs fn under the render lock with the standard helper timeout.
func (h *Handle) withLock(op string, fn func() error) error {
	if !h.Lock(opTimeout) {
		return errors.New(op, errors.KindTimeout, "render lock not acquired")
	}
	defer h.Unlock()
	return fn()
}

// CreateScreen allocates a new screen sized to the display.
func (h *Handle) CreateScreen() (*render.Screen, error) {
	var s *render.Screen
	err := h.withLock("gfx.CreateScreen", func() error {
		var err error
		s, err = h.engine.CreateScreen()
		return err
	})
	return s, err
}

// LoadScreen makes s the active screen.
func (h *Handle) LoadScreen(s *render.Screen) error {
	return h.withLock("gfx.LoadScreen", func() error {
		return h.engine.LoadScreen(s)
	})
}

// Screen returns the active screen, or nil before any LoadScreen.
func (h *Handle) Screen() *render.Screen {
	return h.engine.ActiveScreen()
}

// RefreshDisplay invalidates the active screen so the next engine step
// repaints it fully.
func (h *Handle) RefreshDisplay() error {
	return h.withLock("gfx.RefreshDisplay", func() error {
		s := h.engine.ActiveScreen()
		if s == nil {
			return errors.New("gfx.RefreshDisplay", errors.KindInvalidState, "no active screen")
		}
		s.Invalidate()
		return nil
	})
}

// SetBrightness sets the panel backlight, 0-255.
func (h *Handle) SetBrightness(level uint8) error {
	return h.display.SetBacklight(level)
}

// Brightness returns the panel backlight level.
func (h *Handle) Brightness() uint8 {
	return h.display.Backlight()
}

// SetRotation rotates the panel and repaints the active screen.
func (h *Handle) SetRotation(rot hal.Rotation) error {
	return h.withLock("gfx.SetRotation", func() error {
		if err := h.display.SetRotation(rot); err != nil {
			return err
		}
		if s := h.engine.ActiveScreen(); s != nil {
			s.Invalidate()
		}
		return nil
	})
}

// SetAcceleration toggles the accelerated flush path at runtime. With it
// off, every flush takes the software bitmap path.
func (h *Handle) SetAcceleration(enable bool) {
	h.mu.Lock()
	h.accel = enable
	h.mu.Unlock()
}

// IsReady reports whether the integration is started with both HALs live.
func (h *Handle) IsReady() bool {
	h.mu.Lock()
	started := h.started
	h.mu.Unlock()
	return started && h.display.Ready() && h.touch.Ready()
}

// PerformanceStats returns the current frame counters and buffer usage.
func (h *Handle) PerformanceStats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	external := false
	for _, b := range h.bufs {
		if b.External(h.alloc) {
			external = true
			break
		}
	}
	return Stats{
		FPSAverage:      h.fpsAvg,
		Frames:          h.frames,
		BufferBytes:     h.bufBytes,
		BuffersExternal: external,
	}
}

// Pointer returns the last collapsed pointer sample.
func (h *Handle) Pointer() render.PointerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pointer
}

// Uptime returns the time since Start, zero when stopped.
func (h *Handle) Uptime() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return 0
	}
	return time.Since(h.baseline)
}

// Display exposes the display HAL handle for direct drawing outside the
// engine, for example in firmware that skips the render engine entirely.
func (h *Handle) Display() hal.Display { return h.display }

// Touch exposes the touch HAL handle, the rich multi-touch channel.
func (h *Handle) Touch() hal.Touch { return h.touch }

// OnReady registers fn to run when Start completes.
func (h *Handle) OnReady(fn func()) {
	h.mu.Lock()
	h.readyFn = fn
	h.mu.Unlock()
}

// OnError registers fn for asynchronous render path failures.
func (h *Handle) OnError(fn func(error)) {
	h.mu.Lock()
	h.errFn = fn
	h.mu.Unlock()
}
