package render

import (
	"sync"
	"time"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

const (
	// inputPollPeriod matches the engine's internal input timer.
	inputPollPeriod = 30 * time.Millisecond
	// idleDelay is recommended when nothing is dirty or pending.
	idleDelay = 10 * time.Millisecond
)

// SoftEngine is a software rendering engine implementing the Engine
// contract: dirty-region screens composited strip by strip through the
// registered surface's flush path. It exists so the framework integration
// runs end to end without an external widget library.
type SoftEngine struct {
	mu          sync.Mutex
	initialized bool
	logf        func(msg string)
	surface     Surface
	hasSurface  bool
	readPointer func() PointerState
	active      *Screen

	clock         time.Duration
	lastInputPoll time.Duration
	lastPointer   PointerState
}

// NewSoftEngine returns an uninitialized software engine.
func NewSoftEngine() *SoftEngine { return &SoftEngine{} }

func (e *SoftEngine) Init() error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return errors.New("render.Init", errors.KindInvalidState, "already initialized")
	}
	e.initialized = true
	e.mu.Unlock()
	e.log("software engine up")
	return nil
}

func (e *SoftEngine) Deinit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	e.hasSurface = false
	e.surface = Surface{}
	e.readPointer = nil
	e.active = nil
	e.clock = 0
	e.lastInputPoll = 0
}

func (e *SoftEngine) SetLogSink(fn func(msg string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logf = fn
}

func (e *SoftEngine) RegisterSurface(s Surface) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errors.New("render.RegisterSurface", errors.KindInvalidState, "engine not initialized")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return errors.New("render.RegisterSurface", errors.KindInvalidArgument, "surface has no area")
	}
	if s.Flush == nil {
		return errors.New("render.RegisterSurface", errors.KindInvalidArgument, "surface has no flush callback")
	}
	if len(s.Buffers) == 0 || s.BufferLines <= 0 {
		return errors.New("render.RegisterSurface", errors.KindInvalidArgument, "surface has no draw buffers")
	}
	for _, b := range s.Buffers {
		if len(b) < s.Width*s.BufferLines {
			return errors.New("render.RegisterSurface", errors.KindInvalidArgument, "draw buffer smaller than one strip")
		}
	}
	e.surface = s
	e.hasSurface = true
	return nil
}

func (e *SoftEngine) RegisterPointer(read func() PointerState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errors.New("render.RegisterPointer", errors.KindInvalidState, "engine not initialized")
	}
	if read == nil {
		return errors.New("render.RegisterPointer", errors.KindInvalidArgument, "nil pointer callback")
	}
	e.readPointer = read
	return nil
}

func (e *SoftEngine) TickInc(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock += d
}

// ProcessStep samples the pointer when its poll timer is due, repaints the
// active screen's dirty region, and returns the recommended delay. Callers
// serialize ProcessStep against render-tree mutation; pkg/gfx does this
// with its lock.
func (e *SoftEngine) ProcessStep() time.Duration {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return idleDelay
	}
	if e.readPointer != nil && e.clock-e.lastInputPoll >= inputPollPeriod {
		e.lastInputPoll = e.clock
		e.lastPointer = e.readPointer()
	}
	screen := e.active
	surface := e.surface
	hasSurface := e.hasSurface
	e.mu.Unlock()

	if screen == nil || !hasSurface {
		return idleDelay
	}
	dirty := screen.takeDirty()
	if dirty.Empty() {
		return idleDelay
	}
	e.flushRegion(screen, surface, dirty)
	if surface.Wait != nil {
		surface.Wait()
	}
	return idleDelay
}

// flushRegion renders dirty strip by strip, alternating draw buffers, and
// pushes each strip through the flush callback. The completion function is
// guarded so a misbehaving callback cannot signal twice; a callback that
// never signals is logged and the buffer reclaimed anyway rather than
// wedging the engine task.
func (e *SoftEngine) flushRegion(screen *Screen, surface Surface, dirty hal.Rect) {
	buf := 0
	for y := dirty.Y; y < dirty.Y+dirty.H; y += surface.BufferLines {
		h := surface.BufferLines
		if y+h > dirty.Y+dirty.H {
			h = dirty.Y + dirty.H - y
		}
		strip := hal.Rect{X: dirty.X, Y: y, W: dirty.W, H: h}
		pixels := surface.Buffers[buf][:strip.W*strip.H]
		screen.renderStrip(strip, pixels)

		var once sync.Once
		signaled := false
		surface.Flush(strip, pixels, func() {
			once.Do(func() { signaled = true })
		})
		if !signaled {
			e.log("flush did not complete, reclaiming buffer")
		}
		buf = (buf + 1) % len(surface.Buffers)
	}
}

func (e *SoftEngine) CreateScreen() (*Screen, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || !e.hasSurface {
		return nil, errors.New("render.CreateScreen", errors.KindInvalidState, "engine has no surface")
	}
	return newScreen(e.surface.Width, e.surface.Height), nil
}

func (e *SoftEngine) LoadScreen(s *Screen) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return errors.New("render.LoadScreen", errors.KindInvalidState, "engine not initialized")
	}
	if s == nil {
		return errors.New("render.LoadScreen", errors.KindInvalidArgument, "nil screen")
	}
	e.active = s
	s.Invalidate()
	return nil
}

func (e *SoftEngine) ActiveScreen() *Screen {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Pointer returns the last sampled pointer state. Test hook.
func (e *SoftEngine) Pointer() PointerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPointer
}

// log snapshots the sink under the mutex so SetLogSink can race a running
// engine task safely. Callers must not hold mu.
func (e *SoftEngine) log(msg string) {
	e.mu.Lock()
	fn := e.logf
	e.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
