package hal

import (
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
)

// IMUSample is one accelerometer or gyroscope reading.
type IMUSample struct {
	X, Y, Z float64
	Time    time.Time
	Valid   bool
}

// Orientation is the device attitude derived from the accelerometer.
type Orientation uint8

const (
	OrientationUnknown Orientation = iota
	OrientationPortrait
	OrientationLandscapeLeft
	OrientationPortraitInverted
	OrientationLandscapeRight
	OrientationFaceUp
	OrientationFaceDown
)

// MotionEventType classifies detected motion.
type MotionEventType uint8

const (
	MotionNone MotionEventType = iota
	MotionSingleTap
	MotionDoubleTap
	MotionSignificant
	MotionStep
	MotionTilt
	MotionPickup
	MotionShake
	MotionOrientationChange
)

// MotionEvent carries detected motion data.
type MotionEvent struct {
	Type        MotionEventType
	Orientation Orientation
	Intensity   float64 // 0.0-1.0
	Duration    time.Duration
	Time        time.Time
}

// IMUConfig configures the inertial sensor HAL.
type IMUConfig struct {
	I2CAddr        uint8
	SDAPin         board.Pin
	SCLPin         board.Pin
	Int1Pin        board.Pin
	Int2Pin        board.Pin
	I2CFrequencyHz int

	AccelRangeG   int // 2, 4, 8, 16
	AccelRateHz   int
	AccelEnable   bool
	GyroRangeDPS  int // 250, 500, 1000, 2000
	GyroRateHz    int
	GyroEnable    bool

	EnableMotionDetection bool
	EnableStepCounter     bool
	MotionThresholdG      float64
}

// IMU is the inertial sensor HAL contract.
type IMU interface {
	Lifecycle

	Init(cfg IMUConfig) error

	ReadAccel() (IMUSample, error)
	ReadGyro() (IMUSample, error)
	Orientation() (Orientation, error)
	Temperature() (float64, error)

	OnMotion(fn func(ev MotionEvent))
	OnOrientation(fn func(o Orientation))
}
