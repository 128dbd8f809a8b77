// Package gfx integrates the rendering engine with the display and touch
// HALs. It owns the engine task, the periodic tick source, the draw
// buffers, and the render lock that serializes every render-tree mutation
// against the engine's processing step.
package gfx

import (
	"runtime"
	"sync"
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
	"github.com/go-tab5/tab5duino/pkg/log"
	"github.com/go-tab5/tab5duino/pkg/mem"
	"github.com/go-tab5/tab5duino/pkg/render"
)

// Forever blocks a Lock call until the lock is acquired.
const Forever = time.Duration(-1)

const (
	// opTimeout bounds the lock wait of the handle's own helpers.
	opTimeout = time.Second
	// joinTimeout bounds the wait for the engine task to exit on Stop.
	joinTimeout = time.Second
	// fallbackDelay paces the engine task when a step could not run.
	fallbackDelay = 10 * time.Millisecond
	// vsyncTimeout caps the per-flush vsync wait.
	vsyncTimeout = 20 * time.Millisecond
)

// Deps are the collaborators a Handle drives. All are required; the
// framework wires simulated implementations by default.
type Deps struct {
	Engine  render.Engine
	Display hal.Display
	Touch   hal.Touch
	Alloc   mem.Allocator
}

// Stats is a snapshot of the integration's performance counters.
type Stats struct {
	// FPSAverage is the rolling one-second frame rate.
	FPSAverage float64
	// Frames is the total frame count since Start.
	Frames uint64
	// BufferBytes is the draw buffer memory in use.
	BufferBytes int
	// BuffersExternal reports whether the buffers landed in external RAM.
	BuffersExternal bool
}

// Handle owns one graphics integration instance: engine context, display
// and touch handles, draw buffers, render lock, tick source and engine
// task. Create it with Init, drive it with Start/Stop, release it with
// Deinit.
type Handle struct {
	cfg     Config
	engine  render.Engine
	display hal.Display
	touch   hal.Touch
	alloc   mem.Allocator
	logger  *log.Logger

	bufs     []*mem.Buffer
	draw     [][]hal.RGB565
	bufBytes int

	// lockCh is the render lock: a buffered channel used as a binary
	// semaphore so acquisition can carry a timeout.
	lockCh chan struct{}

	mu       sync.Mutex
	started  bool
	accel    bool
	stopCh   chan struct{}
	taskDone chan struct{}
	tickStop chan struct{}
	tickDone chan struct{}
	baseline time.Time
	fpsAvg   float64
	frames   uint64
	pointer  render.PointerState
	readyFn  func()
	errFn    func(error)

	// scratch is the touch read buffer, touched only by the engine task.
	scratch []hal.TouchPoint

	// spawnTask is replaceable in tests to exercise creation failure.
	spawnTask func(fn func()) error
}

// Init brings up the integration: engine state and log sink, render lock,
// display and touch HALs, draw buffers, surface and pointer wiring, and
// the (not yet started) tick source. On any failure everything brought up
// so far is torn down and a nil handle is returned.
func Init(cfg Config, deps Deps) (*Handle, error) {
	if deps.Engine == nil || deps.Display == nil || deps.Touch == nil {
		return nil, errors.New("gfx.Init", errors.KindInvalidArgument, "engine, display and touch are required")
	}
	cfg = cfg.withDefaults()

	h := &Handle{
		cfg:       cfg,
		engine:    deps.Engine,
		display:   deps.Display,
		touch:     deps.Touch,
		alloc:     deps.Alloc,
		logger:    log.New("gfx"),
		lockCh:    make(chan struct{}, 1),
		accel:     cfg.EnableAccel,
		scratch:   make([]hal.TouchPoint, board.TouchMaxPoints),
		spawnTask: func(fn func()) error { go fn(); return nil },
	}

	if err := h.engine.Init(); err != nil {
		return nil, errors.Wrap("gfx.Init", errors.KindOf(err), err)
	}
	h.engine.SetLogSink(func(msg string) { h.logger.Debugf("engine: %s", msg) })

	if err := h.display.Init(hal.DisplayConfig{
		Width:              board.DisplayWidth,
		Height:             board.DisplayHeight,
		BitsPerPixel:       board.DisplayBitsPerPixel,
		PixelClockHz:       board.DisplayPixelClockHz,
		EnableAccel:        cfg.EnableAccel,
		EnableDoubleBuffer: cfg.EnableDoubleBuffer,
		EnableVSync:        cfg.EnableVSync,
		BacklightLevel:     255,
	}); err != nil {
		h.engine.Deinit()
		return nil, errors.Wrap("gfx.Init", errors.KindOf(err), err)
	}
	if cfg.Rotation != hal.Rotation0 {
		if err := h.display.SetRotation(cfg.Rotation); err != nil {
			h.logger.Warnf("rotation not applied: %v", err)
		}
	}

	if err := h.touch.Init(hal.TouchConfig{
		I2CAddr:          board.TouchI2CAddr,
		InterruptPin:     board.TouchInt,
		ResetPin:         board.TouchRst,
		SDAPin:           board.TouchSDA,
		SCLPin:           board.TouchSCL,
		I2CFrequencyHz:   board.TouchI2CFreqHz,
		EnableMultiTouch: cfg.EnableMultiTouch,
		EnableGestures:   cfg.EnableGestures,
	}); err != nil {
		h.display.Deinit()
		h.engine.Deinit()
		return nil, errors.Wrap("gfx.Init", errors.KindOf(err), err)
	}

	if err := h.allocBuffers(); err != nil {
		h.touch.Deinit()
		h.display.Deinit()
		h.engine.Deinit()
		return nil, err
	}

	surface := render.Surface{
		Width:       board.DisplayWidth,
		Height:      board.DisplayHeight,
		Buffers:     h.draw,
		BufferLines: cfg.BufferLines,
		Flush:       h.flush,
	}
	if cfg.EnableVSync {
		surface.Wait = func() {
			if err := h.display.WaitVSync(vsyncTimeout); err != nil {
				h.logger.Debugf("vsync wait: %v", err)
			}
		}
	}
	if err := h.engine.RegisterSurface(surface); err != nil {
		h.freeBuffers()
		h.touch.Deinit()
		h.display.Deinit()
		h.engine.Deinit()
		return nil, errors.Wrap("gfx.Init", errors.KindOf(err), err)
	}
	if err := h.engine.RegisterPointer(h.readPointer); err != nil {
		h.freeBuffers()
		h.touch.Deinit()
		h.display.Deinit()
		h.engine.Deinit()
		return nil, errors.Wrap("gfx.Init", errors.KindOf(err), err)
	}

	h.logger.Infof("graphics up: %dx%d, %d buffers of %d lines, accel=%t",
		board.DisplayWidth, board.DisplayHeight, len(h.draw), cfg.BufferLines, cfg.EnableAccel)
	return h, nil
}

// allocBuffers places one or two draw buffers through the allocator.
// A placement failure is a ResourceExhausted error.
func (h *Handle) allocBuffers() error {
	count := 1
	if h.cfg.EnableDoubleBuffer {
		count = 2
	}
	pixels := board.DisplayWidth * h.cfg.BufferLines
	bytes := pixels * board.DisplayBitsPerPixel / 8
	for i := 0; i < count; i++ {
		b, err := h.alloc.Alloc(bytes)
		if err != nil {
			h.freeBuffers()
			return errors.Wrap("gfx.Init", errors.KindResourceExhausted, err)
		}
		h.bufs = append(h.bufs, b)
		h.draw = append(h.draw, make([]hal.RGB565, pixels))
		h.bufBytes += bytes
	}
	return nil
}

func (h *Handle) freeBuffers() {
	for _, b := range h.bufs {
		h.alloc.Free(b)
	}
	h.bufs = nil
	h.draw = nil
	h.bufBytes = 0
}

// Start brings the integration live: starts both HALs and the tick source,
// then spawns the engine task on its own OS thread. A task creation
// failure stops the tick source and reports ResourceExhausted.
func (h *Handle) Start() error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return errors.New("gfx.Start", errors.KindInvalidState, "already started")
	}
	if err := h.display.Start(); err != nil {
		h.mu.Unlock()
		return errors.Wrap("gfx.Start", errors.KindOf(err), err)
	}
	if err := h.touch.Start(); err != nil {
		h.display.Stop()
		h.mu.Unlock()
		return errors.Wrap("gfx.Start", errors.KindOf(err), err)
	}

	h.tickStop = make(chan struct{})
	h.tickDone = make(chan struct{})
	go h.tickTask(h.tickStop, h.tickDone)

	h.stopCh = make(chan struct{})
	h.taskDone = make(chan struct{})
	if err := h.spawnTask(h.engineTask); err != nil {
		close(h.tickStop)
		<-h.tickDone
		h.touch.Stop()
		h.display.Stop()
		h.mu.Unlock()
		return errors.Wrap("gfx.Start", errors.KindResourceExhausted, err)
	}

	h.baseline = time.Now()
	h.fpsAvg = 0
	h.frames = 0
	h.started = true
	readyFn := h.readyFn
	h.mu.Unlock()

	h.logger.Infof("engine task started (core %d, priority %d)", h.cfg.TaskCore, h.cfg.TaskPriority)
	if readyFn != nil {
		readyFn()
	}
	return nil
}

// Stop signals the engine task and waits for it with a bounded join, then
// halts the tick source and both HALs. Safe on a stopped handle.
func (h *Handle) Stop() error {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = false
	stopCh, taskDone := h.stopCh, h.taskDone
	tickStop, tickDone := h.tickStop, h.tickDone
	h.mu.Unlock()

	close(stopCh)
	select {
	case <-taskDone:
	case <-time.After(joinTimeout):
		h.logger.Warnf("engine task did not exit within %v", joinTimeout)
	}
	close(tickStop)
	<-tickDone

	if err := h.touch.Stop(); err != nil {
		h.logger.Warnf("touch stop: %v", err)
	}
	if err := h.display.Stop(); err != nil {
		h.logger.Warnf("display stop: %v", err)
	}
	return nil
}

// Deinit stops the integration and releases everything: engine state, both
// HALs and the draw buffers. Safe on a nil or partially built handle.
func (h *Handle) Deinit() {
	if h == nil {
		return
	}
	h.Stop()
	h.engine.Deinit()
	if err := h.touch.Deinit(); err != nil {
		h.logger.Warnf("touch deinit: %v", err)
	}
	if err := h.display.Deinit(); err != nil {
		h.logger.Warnf("display deinit: %v", err)
	}
	h.freeBuffers()
}

// tickTask advances the engine clock at the configured period.
func (h *Handle) tickTask(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.cfg.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.engine.TickInc(h.cfg.TickPeriod)
		}
	}
}

// engineTask is the render loop. Each iteration takes the lock, runs one
// engine step, updates the frame counters, releases the lock and sleeps
// for the engine's recommended delay. The task is the sole owner of render
// processing, so a blocking acquire cannot be starved under correct usage;
// the fallback delay covers the path where it is not acquired.
func (h *Handle) engineTask() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.taskDone)

	frames := uint64(0)
	window := time.Now()
	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		delay := fallbackDelay
		if h.Lock(Forever) {
			delay = h.engine.ProcessStep()
			frames++
			if elapsed := time.Since(window); elapsed >= time.Second {
				h.mu.Lock()
				h.fpsAvg = float64(frames) / elapsed.Seconds()
				h.frames += frames
				h.mu.Unlock()
				frames = 0
				window = time.Now()
			}
			h.Unlock()
		}

		select {
		case <-h.stopCh:
			return
		case <-time.After(delay):
		}
	}
}

// flush pushes one rendered strip to the display. With acceleration on it
// tries the blitter first and falls back to the software bitmap path on
// any failure. Completion is always signaled, exactly once, whatever
// happened; the engine must never be left waiting on the buffer.
func (h *Handle) flush(area hal.Rect, pixels []hal.RGB565, done func()) {
	defer done()

	h.mu.Lock()
	accel := h.accel
	h.mu.Unlock()

	if accel {
		err := h.display.AccelBlend(area.X, area.Y, pixels, 0, 0, area.W, area.H, 0xFF)
		if err == nil {
			return
		}
		h.logger.Debugf("accel blend failed, software fallback: %v", err)
	}
	if err := h.display.DrawBitmap(area.X, area.Y, area.W, area.H, pixels); err != nil {
		h.reportError(errors.Wrap("gfx.flush", errors.KindOf(err), err))
	}
}

// readPointer samples the touch HAL and collapses the contact array to the
// first valid point. Richer multi-touch data flows through the Touch HAL's
// own event callback, not through here.
func (h *Handle) readPointer() render.PointerState {
	h.mu.Lock()
	last := h.pointer
	h.mu.Unlock()

	// A read failure reports a release at the last coordinates. Holding the
	// previous pressed sample would leave the engine seeing a stuck press
	// across a transient bus fault.
	state := render.PointerState{X: last.X, Y: last.Y}
	n, err := h.touch.ReadPoints(h.scratch)
	if err == nil {
		for i := 0; i < n; i++ {
			if p := h.scratch[i]; p.IsValid() {
				state = render.PointerState{X: p.X, Y: p.Y, Pressed: true}
				break
			}
		}
	}
	h.mu.Lock()
	h.pointer = state
	h.mu.Unlock()
	return state
}

func (h *Handle) reportError(err error) {
	h.mu.Lock()
	fn := h.errFn
	h.mu.Unlock()
	if fe, ok := err.(*errors.FrameworkError); ok {
		errors.Report(fe)
	} else {
		errors.Report(errors.Wrap("gfx", errors.KindOf(err), err))
	}
	h.logger.Errorf("%v", err)
	if fn != nil {
		fn(err)
	}
}
