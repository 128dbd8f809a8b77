// Package halsim implements the hal contracts against a simulated M5Stack
// Tab5 board. It backs host-side development and the framework's own tests:
// every device keeps its state in memory and supports fault injection so
// lifecycle error paths can be exercised without hardware.
package halsim

import (
	"image"
	"image/color"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Display simulates the Tab5's MIPI-DSI panel with an in-memory RGBA
// framebuffer. The accelerated path can be forced to fail through FailAccel
// to exercise the software fallback.
type Display struct {
	// Fault injection, set before the lifecycle call they affect.
	FailInit  error
	FailStart error
	FailAccel error

	mu          sync.Mutex
	cfg         hal.DisplayConfig
	initialized bool
	started     bool
	backlight   uint8
	rotation    hal.Rotation
	fb          *image.RGBA
	vsyncFn     func()
	drawDoneFn  func()

	// Counters for inspection.
	Bitmaps int // DrawBitmap calls
	Blends  int // successful AccelBlend calls
	Swaps   int
}

// NewDisplay returns an uninitialized simulated display.
func NewDisplay() *Display { return &Display{} }

// Image exposes the simulated framebuffer for inspection.
func (d *Display) Image() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fb
}

func (d *Display) Init(cfg hal.DisplayConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return errors.New("display.Init", errors.KindInvalidState, "already initialized")
	}
	if d.FailInit != nil {
		return errors.Wrap("display.Init", errors.KindHardware, d.FailInit)
	}
	if cfg.Width <= 0 {
		cfg.Width = board.DisplayWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = board.DisplayHeight
	}
	d.cfg = cfg
	d.backlight = cfg.BacklightLevel
	d.fb = image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	d.initialized = true
	return nil
}

func (d *Display) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	d.started = false
	d.fb = nil
	d.vsyncFn = nil
	d.drawDoneFn = nil
	return nil
}

func (d *Display) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.Start", errors.KindInvalidState, "not initialized")
	}
	if d.FailStart != nil {
		return errors.Wrap("display.Start", errors.KindHardware, d.FailStart)
	}
	d.started = true
	return nil
}

func (d *Display) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	return nil
}

func (d *Display) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized && d.started
}

func (d *Display) SetBacklight(level uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.SetBacklight", errors.KindInvalidState, "not initialized")
	}
	d.backlight = level
	return nil
}

func (d *Display) Backlight() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight
}

func (d *Display) SetRotation(rot hal.Rotation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.SetRotation", errors.KindInvalidState, "not initialized")
	}
	d.rotation = rot
	return nil
}

func (d *Display) Rotation() hal.Rotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotation
}

func (d *Display) Framebuffer() (hal.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return hal.Framebuffer{}, errors.New("display.Framebuffer", errors.KindInvalidState, "not initialized")
	}
	return hal.Framebuffer{
		Width:  d.cfg.Width,
		Height: d.cfg.Height,
		Ready:  d.started,
	}, nil
}

func (d *Display) SwapBuffers() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.SwapBuffers", errors.KindInvalidState, "not initialized")
	}
	d.Swaps++
	if d.drawDoneFn != nil {
		fn := d.drawDoneFn
		d.mu.Unlock()
		fn()
		d.mu.Lock()
	}
	return nil
}

// WaitVSync completes immediately: the simulated scanout has no retrace.
// The registered vsync callback still fires so pacing code sees the event.
func (d *Display) WaitVSync(timeout time.Duration) error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return errors.New("display.WaitVSync", errors.KindInvalidState, "not initialized")
	}
	fn := d.vsyncFn
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (d *Display) Clear(c hal.RGB565) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.Clear", errors.KindInvalidState, "not initialized")
	}
	xdraw.Draw(d.fb, d.fb.Bounds(), image.NewUniform(rgbaOf(c)), image.Point{}, xdraw.Src)
	return nil
}

func (d *Display) FillRect(r hal.Rect, c hal.RGB565) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.FillRect", errors.KindInvalidState, "not initialized")
	}
	dst := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	xdraw.Draw(d.fb, dst, image.NewUniform(rgbaOf(c)), image.Point{}, xdraw.Src)
	return nil
}

func (d *Display) DrawPixel(x, y int, c hal.RGB565) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.DrawPixel", errors.KindInvalidState, "not initialized")
	}
	if x < 0 || y < 0 || x >= d.cfg.Width || y >= d.cfg.Height {
		return errors.Newf("display.DrawPixel", errors.KindInvalidArgument, "pixel (%d,%d) out of bounds", x, y)
	}
	d.fb.SetRGBA(x, y, rgbaOf(c))
	return nil
}

func (d *Display) DrawBitmap(x, y, w, h int, pixels []hal.RGB565) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.DrawBitmap", errors.KindInvalidState, "not initialized")
	}
	if len(pixels) < w*h {
		return errors.Newf("display.DrawBitmap", errors.KindInvalidArgument,
			"bitmap of %d pixels for %dx%d region", len(pixels), w, h)
	}
	src := rgbaImage(pixels, w, h, 0xFF)
	xdraw.Draw(d.fb, image.Rect(x, y, x+w, y+h), src, image.Point{}, xdraw.Src)
	d.Bitmaps++
	if d.drawDoneFn != nil {
		fn := d.drawDoneFn
		d.mu.Unlock()
		fn()
		d.mu.Lock()
	}
	return nil
}

func (d *Display) AccelFill(r hal.Rect, c hal.RGB565, alpha uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.AccelFill", errors.KindInvalidState, "not initialized")
	}
	if !d.cfg.EnableAccel {
		return errors.New("display.AccelFill", errors.KindNotSupported, "accelerator disabled")
	}
	if d.FailAccel != nil {
		return errors.Wrap("display.AccelFill", errors.KindHardware, d.FailAccel)
	}
	col := rgbaOf(c)
	col.A = alpha
	dst := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	xdraw.Draw(d.fb, dst, image.NewUniform(col), image.Point{}, xdraw.Over)
	return nil
}

func (d *Display) AccelBlend(dstX, dstY int, src []hal.RGB565, srcX, srcY, w, h int, alpha uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return errors.New("display.AccelBlend", errors.KindInvalidState, "not initialized")
	}
	if !d.cfg.EnableAccel {
		return errors.New("display.AccelBlend", errors.KindNotSupported, "accelerator disabled")
	}
	if d.FailAccel != nil {
		return errors.Wrap("display.AccelBlend", errors.KindHardware, d.FailAccel)
	}
	if len(src) < (srcY+h)*w {
		return errors.New("display.AccelBlend", errors.KindInvalidArgument, "source buffer too small")
	}
	img := rgbaImage(src[srcY*w:], w, h, alpha)
	op := xdraw.Over
	if alpha == 0xFF {
		op = xdraw.Src
	}
	xdraw.Draw(d.fb, image.Rect(dstX, dstY, dstX+w, dstY+h), img, image.Point{X: srcX}, op)
	d.Blends++
	return nil
}

func (d *Display) OnVSync(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vsyncFn = fn
}

func (d *Display) OnDrawComplete(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawDoneFn = fn
}

func rgbaOf(c hal.RGB565) color.RGBA {
	r, g, b := c.Channels()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// rgbaImage expands RGB565 pixels into an RGBA image with uniform alpha.
func rgbaImage(pixels []hal.RGB565, w, h int, alpha uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := pixels[y*w : y*w+w]
		for x, p := range row {
			r, g, b := p.Channels()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: alpha})
		}
	}
	return img
}
