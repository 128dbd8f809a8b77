package hal

import (
	"math"
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
)

// TouchPoint is one contact reported by the touch controller.
type TouchPoint struct {
	X        int
	Y        int
	Pressure uint8 // 0 means no contact
	Size     uint8 // contact area
	ID       uint8 // tracking id across frames
	Valid    bool
}

// IsValid reports whether the point represents a real contact.
func (p TouchPoint) IsValid() bool { return p.Valid && p.Pressure > 0 }

// Distance returns the distance between two contacts in pixels.
func (p TouchPoint) Distance(o TouchPoint) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// GestureType classifies a recognized touch gesture.
type GestureType uint8

const (
	GestureNone GestureType = iota
	GesturePress
	GestureRelease
	GestureMove
	GestureLongPress
	GestureSwipeUp
	GestureSwipeDown
	GestureSwipeLeft
	GestureSwipeRight
	GesturePinchIn
	GesturePinchOut
	GestureRotate
)

// Gesture carries the data of a recognized gesture.
type Gesture struct {
	Type      GestureType
	Start     TouchPoint
	Current   TouchPoint
	End       TouchPoint
	Duration  time.Duration
	DistanceX int
	DistanceY int
	Velocity  float64 // pixels per second
	Angle     float64 // degrees, rotation gestures
	Scale     float64 // pinch gestures
}

// TouchConfig configures the touch HAL. Addressing and pins default to the
// board's GT911 wiring.
type TouchConfig struct {
	I2CAddr          uint8
	InterruptPin     board.Pin
	ResetPin         board.Pin
	SDAPin           board.Pin
	SCLPin           board.Pin
	I2CFrequencyHz   int
	EnableMultiTouch bool
	EnableGestures   bool
	Debounce         time.Duration
	Sensitivity      uint8
	FlipX            bool
	FlipY            bool
	SwapXY           bool
}

// Touch is the touch HAL contract.
type Touch interface {
	Lifecycle

	Init(cfg TouchConfig) error

	// ReadPoints fills dst with current contacts and returns the count.
	// dst should hold board.TouchMaxPoints entries.
	ReadPoints(dst []TouchPoint) (int, error)
	// Touched reports whether any contact is present.
	Touched() (bool, error)
	// Gesture returns the most recently recognized gesture.
	Gesture() (Gesture, error)

	SetSensitivity(level uint8) error
	Sensitivity() uint8
	// SetTransform configures coordinate mirroring and axis swap.
	SetTransform(flipX, flipY, swapXY bool) error
	Calibrate() error

	// OnEvent delivers full contact arrays; this is the rich multi-touch
	// channel, independent of the collapsed pointer path the graphics
	// integration feeds to the render engine.
	OnEvent(fn func(points []TouchPoint))
	OnGesture(fn func(g Gesture))
}
