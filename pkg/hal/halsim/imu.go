package halsim

import (
	"math"
	"sync"
	"time"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// IMU simulates the BMI270 inertial sensor. Tests feed readings through
// SetAccel and SetGyro; the orientation is derived from the accelerometer
// the same way the device driver does.
type IMU struct {
	FailInit  error
	FailStart error

	mu          sync.Mutex
	cfg         hal.IMUConfig
	initialized bool
	started     bool
	accel       hal.IMUSample
	gyro        hal.IMUSample
	temp        float64
	motionFn    func(hal.MotionEvent)
	orientFn    func(hal.Orientation)
	lastOrient  hal.Orientation
}

// NewIMU returns an uninitialized simulated inertial sensor. The device
// starts flat on its back, 1g on the Z axis.
func NewIMU() *IMU {
	return &IMU{
		accel: hal.IMUSample{Z: 1, Valid: true},
		gyro:  hal.IMUSample{Valid: true},
		temp:  25,
	}
}

// SetAccel installs the accelerometer reading, in g. An orientation change
// fires the orientation callback.
func (m *IMU) SetAccel(x, y, z float64) {
	m.mu.Lock()
	m.accel = hal.IMUSample{X: x, Y: y, Z: z, Time: time.Now(), Valid: true}
	o := orientationOf(m.accel)
	changed := o != m.lastOrient
	m.lastOrient = o
	orientFn := m.orientFn
	motionFn := m.motionFn
	started := m.started
	m.mu.Unlock()
	if !started || !changed {
		return
	}
	if orientFn != nil {
		orientFn(o)
	}
	if motionFn != nil {
		motionFn(hal.MotionEvent{
			Type:        hal.MotionOrientationChange,
			Orientation: o,
			Time:        time.Now(),
		})
	}
}

// SetGyro installs the gyroscope reading, in degrees per second.
func (m *IMU) SetGyro(x, y, z float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gyro = hal.IMUSample{X: x, Y: y, Z: z, Time: time.Now(), Valid: true}
}

// SetTemperature installs the die temperature, in celsius.
func (m *IMU) SetTemperature(c float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.temp = c
}

// InjectMotion delivers a motion event to the registered callback.
func (m *IMU) InjectMotion(ev hal.MotionEvent) {
	m.mu.Lock()
	fn := m.motionFn
	started := m.started
	m.mu.Unlock()
	if fn != nil && started {
		fn(ev)
	}
}

func (m *IMU) Init(cfg hal.IMUConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return errors.New("imu.Init", errors.KindInvalidState, "already initialized")
	}
	if m.FailInit != nil {
		return errors.Wrap("imu.Init", errors.KindHardware, m.FailInit)
	}
	m.cfg = cfg
	m.initialized = true
	return nil
}

func (m *IMU) Deinit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	m.started = false
	m.motionFn = nil
	m.orientFn = nil
	return nil
}

func (m *IMU) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return errors.New("imu.Start", errors.KindInvalidState, "not initialized")
	}
	if m.FailStart != nil {
		return errors.Wrap("imu.Start", errors.KindHardware, m.FailStart)
	}
	m.started = true
	return nil
}

func (m *IMU) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

func (m *IMU) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized && m.started
}

func (m *IMU) ReadAccel() (hal.IMUSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return hal.IMUSample{}, errors.New("imu.ReadAccel", errors.KindInvalidState, "not initialized")
	}
	return m.accel, nil
}

func (m *IMU) ReadGyro() (hal.IMUSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return hal.IMUSample{}, errors.New("imu.ReadGyro", errors.KindInvalidState, "not initialized")
	}
	return m.gyro, nil
}

func (m *IMU) Orientation() (hal.Orientation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return hal.OrientationUnknown, errors.New("imu.Orientation", errors.KindInvalidState, "not initialized")
	}
	return orientationOf(m.accel), nil
}

func (m *IMU) Temperature() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return 0, errors.New("imu.Temperature", errors.KindInvalidState, "not initialized")
	}
	return m.temp, nil
}

func (m *IMU) OnMotion(fn func(ev hal.MotionEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.motionFn = fn
}

func (m *IMU) OnOrientation(fn func(o hal.Orientation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orientFn = fn
}

// orientationOf maps gravity direction to a device attitude. The dominant
// axis wins; an axis must carry most of 1g to count.
func orientationOf(s hal.IMUSample) hal.Orientation {
	const threshold = 0.6
	ax, ay, az := math.Abs(s.X), math.Abs(s.Y), math.Abs(s.Z)
	switch {
	case az >= ax && az >= ay && az > threshold:
		if s.Z > 0 {
			return hal.OrientationFaceUp
		}
		return hal.OrientationFaceDown
	case ay >= ax && ay > threshold:
		if s.Y > 0 {
			return hal.OrientationPortrait
		}
		return hal.OrientationPortraitInverted
	case ax > threshold:
		if s.X > 0 {
			return hal.OrientationLandscapeLeft
		}
		return hal.OrientationLandscapeRight
	}
	return hal.OrientationUnknown
}
