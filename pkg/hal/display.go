package hal

import "time"

// RGB565 is a packed 16-bit pixel, the panel's native format.
type RGB565 uint16

// RGB packs 8-bit channels into RGB565.
func RGB(r, g, b uint8) RGB565 {
	return RGB565(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// Channels unpacks an RGB565 pixel into 8-bit channels.
func (c RGB565) Channels() (r, g, b uint8) {
	return uint8(c>>8) & 0xF8, uint8(c>>3) & 0xFC, uint8(c<<3) & 0xF8
}

// Common panel colors.
const (
	ColorBlack RGB565 = 0x0000
	ColorWhite RGB565 = 0xFFFF
	ColorRed   RGB565 = 0xF800
	ColorGreen RGB565 = 0x07E0
	ColorBlue  RGB565 = 0x001F
)

// Rect is a screen region in panel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the region covers no pixels.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1 := max(r.X+r.W, o.X+o.W)
	y1 := max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Rotation selects the panel orientation.
type Rotation uint8

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// DisplayConfig configures the display HAL.
type DisplayConfig struct {
	Width          int
	Height         int
	BitsPerPixel   int
	PixelClockHz   int
	EnableAccel    bool // 2D blitter (PPA) offload
	EnableDoubleBuffer bool
	EnableVSync    bool
	BacklightLevel uint8
}

// Framebuffer describes the panel's current back buffer.
type Framebuffer struct {
	Pixels []RGB565
	Width  int
	Height int
	Ready  bool
}

// Display is the display HAL contract.
type Display interface {
	Lifecycle

	// Init brings the panel up with the given configuration.
	Init(cfg DisplayConfig) error

	// Backlight control, 0-255.
	SetBacklight(level uint8) error
	Backlight() uint8

	SetRotation(rot Rotation) error
	Rotation() Rotation

	// Framebuffer returns the panel's back buffer descriptor.
	Framebuffer() (Framebuffer, error)
	// SwapBuffers presents the back buffer (double-buffer mode only).
	SwapBuffers() error
	// WaitVSync blocks until the next vertical sync or the timeout elapses.
	WaitVSync(timeout time.Duration) error

	// Software drawing path.
	Clear(color RGB565) error
	FillRect(r Rect, color RGB565) error
	DrawPixel(x, y int, color RGB565) error
	DrawBitmap(x, y, w, h int, pixels []RGB565) error

	// Accelerated path. Implementations without a blitter return a
	// KindNotSupported error and callers fall back to the software path.
	AccelFill(r Rect, color RGB565, alpha uint8) error
	AccelBlend(dstX, dstY int, src []RGB565, srcX, srcY, w, h int, alpha uint8) error

	// Callback registration.
	OnVSync(fn func())
	OnDrawComplete(fn func())
}
