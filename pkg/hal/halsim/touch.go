package halsim

import (
	"sync"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Touch simulates the GT911 touch controller. Tests script contact frames
// through SetPoints; each call replaces the current frame and fires the
// registered event callback.
type Touch struct {
	FailInit  error
	FailStart error

	mu          sync.Mutex
	cfg         hal.TouchConfig
	initialized bool
	started     bool
	points      []hal.TouchPoint
	gesture     hal.Gesture
	sensitivity uint8
	flipX       bool
	flipY       bool
	swapXY      bool
	eventFn     func([]hal.TouchPoint)
	gestureFn   func(hal.Gesture)
}

// NewTouch returns an uninitialized simulated touch controller.
func NewTouch() *Touch { return &Touch{} }

// SetPoints installs the current contact frame and delivers it to the
// event callback. Pass no points to simulate release.
func (t *Touch) SetPoints(points ...hal.TouchPoint) {
	t.mu.Lock()
	t.points = append(t.points[:0], points...)
	fn := t.eventFn
	frame := make([]hal.TouchPoint, len(points))
	copy(frame, points)
	started := t.started
	t.mu.Unlock()
	if fn != nil && started {
		fn(frame)
	}
}

// SetGesture installs a recognized gesture and delivers it to the callback.
func (t *Touch) SetGesture(g hal.Gesture) {
	t.mu.Lock()
	t.gesture = g
	fn := t.gestureFn
	started := t.started
	t.mu.Unlock()
	if fn != nil && started {
		fn(g)
	}
}

func (t *Touch) Init(cfg hal.TouchConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initialized {
		return errors.New("touch.Init", errors.KindInvalidState, "already initialized")
	}
	if t.FailInit != nil {
		return errors.Wrap("touch.Init", errors.KindHardware, t.FailInit)
	}
	t.cfg = cfg
	t.sensitivity = cfg.Sensitivity
	t.flipX, t.flipY, t.swapXY = cfg.FlipX, cfg.FlipY, cfg.SwapXY
	t.initialized = true
	return nil
}

func (t *Touch) Deinit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.initialized = false
	t.started = false
	t.points = nil
	t.eventFn = nil
	t.gestureFn = nil
	return nil
}

func (t *Touch) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return errors.New("touch.Start", errors.KindInvalidState, "not initialized")
	}
	if t.FailStart != nil {
		return errors.Wrap("touch.Start", errors.KindHardware, t.FailStart)
	}
	t.started = true
	return nil
}

func (t *Touch) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	return nil
}

func (t *Touch) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized && t.started
}

func (t *Touch) ReadPoints(dst []hal.TouchPoint) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return 0, errors.New("touch.ReadPoints", errors.KindInvalidState, "not initialized")
	}
	n := len(t.points)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = t.transformed(t.points[i])
	}
	return n, nil
}

func (t *Touch) Touched() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return false, errors.New("touch.Touched", errors.KindInvalidState, "not initialized")
	}
	for _, p := range t.points {
		if p.IsValid() {
			return true, nil
		}
	}
	return false, nil
}

func (t *Touch) Gesture() (hal.Gesture, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return hal.Gesture{}, errors.New("touch.Gesture", errors.KindInvalidState, "not initialized")
	}
	return t.gesture, nil
}

func (t *Touch) SetSensitivity(level uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return errors.New("touch.SetSensitivity", errors.KindInvalidState, "not initialized")
	}
	t.sensitivity = level
	return nil
}

func (t *Touch) Sensitivity() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sensitivity
}

func (t *Touch) SetTransform(flipX, flipY, swapXY bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return errors.New("touch.SetTransform", errors.KindInvalidState, "not initialized")
	}
	t.flipX, t.flipY, t.swapXY = flipX, flipY, swapXY
	return nil
}

func (t *Touch) Calibrate() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return errors.New("touch.Calibrate", errors.KindInvalidState, "not initialized")
	}
	return nil
}

func (t *Touch) OnEvent(fn func(points []hal.TouchPoint)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.eventFn = fn
}

func (t *Touch) OnGesture(fn func(g hal.Gesture)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gestureFn = fn
}

func (t *Touch) transformed(p hal.TouchPoint) hal.TouchPoint {
	if t.swapXY {
		p.X, p.Y = p.Y, p.X
	}
	if t.flipX {
		p.X = board.DisplayWidth - 1 - p.X
	}
	if t.flipY {
		p.Y = board.DisplayHeight - 1 - p.Y
	}
	return p
}
