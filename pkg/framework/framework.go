// Package framework implements the Tab5duino controller: an explicitly
// constructed context object owning the subsystem registry and its
// lifecycle state machine, the main application task that drives the
// user's setup and loop callbacks, and the graphics integration.
//
// Lifecycle entry points (Init, Start, Stop, Deinit, InitSubsystem,
// DeinitSubsystem) are serialized by the instance and must not be
// re-entered from user hooks. State queries are safe from any goroutine.
package framework

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/console"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/gfx"
	"github.com/go-tab5/tab5duino/pkg/hal"
	"github.com/go-tab5/tab5duino/pkg/hal/halsim"
	"github.com/go-tab5/tab5duino/pkg/log"
	"github.com/go-tab5/tab5duino/pkg/mem"
	"github.com/go-tab5/tab5duino/pkg/render"
)

// Version is the framework version triple.
const Version = "1.0.0"

const (
	// internalHeapBytes is the internal RAM budget for framework buffers.
	internalHeapBytes = 512 * 1024
	// stopJoinTimeout bounds the wait for the main task on Stop.
	stopJoinTimeout = time.Second
)

// Deps are the hardware collaborators. Nil fields are filled with
// simulated devices, so a zero Deps runs the whole framework on the
// simulated board.
//
// GfxDisplay and GfxTouch are the graphics integration's own handles; the
// integration owns them exclusively, separate from the subsystem-level
// Display and Touch entries.
type Deps struct {
	Display hal.Display
	Touch   hal.Touch
	IMU     hal.IMU
	Audio   hal.Audio
	Power   hal.Power
	GPIO    hal.GPIO

	Engine     render.Engine
	GfxDisplay hal.Display
	GfxTouch   hal.Touch
}

func (d Deps) withDefaults() Deps {
	if d.Display == nil {
		d.Display = halsim.NewDisplay()
	}
	if d.Touch == nil {
		d.Touch = halsim.NewTouch()
	}
	if d.IMU == nil {
		d.IMU = halsim.NewIMU()
	}
	if d.Audio == nil {
		d.Audio = halsim.NewAudio()
	}
	if d.Power == nil {
		d.Power = halsim.NewPower()
	}
	if d.GPIO == nil {
		d.GPIO = halsim.NewGPIO()
	}
	if d.Engine == nil {
		d.Engine = render.NewSoftEngine()
	}
	if d.GfxDisplay == nil {
		d.GfxDisplay = halsim.NewDisplay()
	}
	if d.GfxTouch == nil {
		d.GfxTouch = halsim.NewTouch()
	}
	return d
}

// Framework is one controller instance. Construct with New, bring up with
// Init, run with Start. Multiple independent instances are allowed; they
// share nothing.
type Framework struct {
	// mu serializes the lifecycle entry points.
	mu sync.Mutex
	// stateMu guards the subsystem state table and instance flags so
	// queries work from hooks and other goroutines.
	stateMu sync.Mutex

	cfg    Config
	deps   Deps
	logger *log.Logger

	states [subsystemCount]State
	caps   map[Subsystem]capability

	alloc   mem.Allocator
	gfx     *gfx.Handle
	console *console.Console

	initialized bool
	initFailed  bool
	started     bool
	setupDone   atomic.Bool
	bootTime    time.Time

	stopCh   chan struct{}
	taskDone chan struct{}

	onInit           func()
	onReady          func()
	onSubsystemError func(Subsystem, error)
	onGraphicsReady  func()

	// spawnTask is replaceable in tests to exercise creation failure.
	spawnTask func(fn func()) error
}

// New builds a framework instance around cfg and deps. Nothing is touched
// until Init.
func New(cfg Config, deps Deps) *Framework {
	f := &Framework{
		cfg:       cfg,
		deps:      deps.withDefaults(),
		logger:    log.New("tab5duino"),
		spawnTask: func(fn func()) error { go fn(); return nil },
	}
	f.caps = map[Subsystem]capability{
		SubsystemDisplay: {
			bringUp:  func() error { return bringUpDisplay(f.deps.Display) },
			tearDown: func() error { return tearDownHAL(f.deps.Display) },
		},
		SubsystemTouch: {
			bringUp:  func() error { return bringUpTouch(f.deps.Touch) },
			tearDown: func() error { return tearDownHAL(f.deps.Touch) },
		},
		SubsystemIMU: {
			bringUp:  func() error { return bringUpIMU(f.deps.IMU) },
			tearDown: func() error { return tearDownHAL(f.deps.IMU) },
		},
		SubsystemAudio: {
			bringUp:  func() error { return bringUpAudio(f.deps.Audio) },
			tearDown: func() error { return tearDownHAL(f.deps.Audio) },
		},
		SubsystemPower: {
			bringUp:  func() error { return bringUpPower(f.deps.Power) },
			tearDown: func() error { return tearDownHAL(f.deps.Power) },
		},
		SubsystemGraphics: {
			bringUp:  f.bringUpGraphics,
			tearDown: f.tearDownGraphics,
		},
	}
	return f
}

// Init brings the framework up: boot timestamp, state reset, cross-cutting
// infrastructure (memory pools, USB-serial console; failures there are
// non-fatal), then the subsystems in fixed dependency order. A subsystem
// failure records ERROR and fires the error hook but does not abort the
// sequence.
//
// Calling Init on an initialized instance warns and returns nil when the
// previous init fully succeeded; after a partial failure it returns
// InvalidState until Deinit runs.
func (f *Framework) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stateMu.Lock()
	initialized, failed := f.initialized, f.initFailed
	f.stateMu.Unlock()
	if initialized {
		if failed {
			return errors.New("framework.Init", errors.KindInvalidState,
				"previous init partially failed, deinit before retrying")
		}
		f.logger.Warnf("already initialized")
		return nil
	}

	f.stateMu.Lock()
	f.bootTime = time.Now()
	for i := range f.states {
		f.states[i] = StateUninitialized
	}
	f.stateMu.Unlock()

	f.logger.Infof("Tab5duino %s starting", Version)

	f.alloc = mem.Allocator{Internal: mem.NewPool("internal", internalHeapBytes)}
	if f.cfg.EnablePSRAM {
		f.alloc.External = mem.NewPool("psram", board.PSRAMSize)
		f.logger.Infof("external RAM pool: %d bytes", board.PSRAMSize)
	}

	if f.cfg.EnableUSBSerial {
		c, err := console.Open(console.Config{
			Device:      f.cfg.ConsoleDevice,
			Baud:        115200,
			ReadTimeout: 100 * time.Millisecond,
		})
		f.console = c
		if err != nil {
			f.logger.Warnf("usb-serial console unavailable: %v", err)
		}
	}

	anyFailed := false
	for _, step := range []struct {
		id      Subsystem
		enabled bool
	}{
		{SubsystemDisplay, f.cfg.AutoInitDisplay},
		{SubsystemTouch, f.cfg.AutoInitTouch},
		{SubsystemIMU, f.cfg.AutoInitIMU},
		{SubsystemAudio, f.cfg.AutoInitAudio},
		{SubsystemPower, true},
		{SubsystemGraphics, f.cfg.AutoInitGraphics},
	} {
		if !step.enabled {
			continue
		}
		if err := f.initSubsystem(step.id); err != nil {
			anyFailed = true
		}
	}

	f.stateMu.Lock()
	f.initialized = true
	f.initFailed = anyFailed
	f.stateMu.Unlock()

	if !anyFailed && f.onInit != nil {
		f.onInit()
	}
	f.logger.Infof("init complete")
	return nil
}

// Start spawns the main application task running setup once and then loop
// forever. The ready hook runs on the caller, after the task exists.
func (f *Framework) Start(setup, loop func()) error {
	f.mu.Lock()
	f.stateMu.Lock()
	initialized, started := f.initialized, f.started
	f.stateMu.Unlock()
	if !initialized {
		f.mu.Unlock()
		return errors.New("framework.Start", errors.KindInvalidState, "not initialized")
	}
	if started {
		f.mu.Unlock()
		f.logger.Warnf("already started")
		return nil
	}
	if setup == nil || loop == nil {
		f.mu.Unlock()
		return errors.New("framework.Start", errors.KindInvalidArgument, "setup and loop are required")
	}

	stopCh := make(chan struct{})
	taskDone := make(chan struct{})
	if err := f.spawnTask(func() { f.mainTask(setup, loop, stopCh, taskDone) }); err != nil {
		f.mu.Unlock()
		return errors.Wrap("framework.Start", errors.KindResourceExhausted, err)
	}
	f.stopCh = stopCh
	f.taskDone = taskDone
	f.stateMu.Lock()
	f.started = true
	f.stateMu.Unlock()
	f.logger.Infof("main task started (core %d, priority %d, stack %d)",
		f.cfg.LoopTaskCore, f.cfg.LoopTaskPriority, f.cfg.LoopStackSize)
	f.mu.Unlock()

	if f.onReady != nil {
		f.onReady()
	}
	return nil
}

// mainTask is the application task body: SETUP once, then LOOPING with a
// cancellation check and a scheduler yield between iterations.
func (f *Framework) mainTask(setup, loop func(), stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	setup()
	f.setupDone.Store(true)
	for {
		select {
		case <-stop:
			return
		default:
		}
		loop()
		runtime.Gosched()
	}
}

// Stop cancels the main task and waits for it with a bounded join. A loop
// iteration that never returns is logged and abandoned.
func (f *Framework) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopLocked()
}

func (f *Framework) stopLocked() error {
	f.stateMu.Lock()
	started := f.started
	f.stateMu.Unlock()
	if !started {
		return nil
	}
	close(f.stopCh)
	select {
	case <-f.taskDone:
	case <-time.After(stopJoinTimeout):
		f.logger.Warnf("main task did not yield within %v, abandoning it", stopJoinTimeout)
	}
	f.stateMu.Lock()
	f.started = false
	f.stateMu.Unlock()
	f.setupDone.Store(false)
	return nil
}

// Deinit stops the main task, deinitializes every subsystem in reverse of
// init order, tears down the console and resets the instance so a later
// Init behaves like a fresh boot.
func (f *Framework) Deinit() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopLocked()

	for _, id := range []Subsystem{
		SubsystemGraphics,
		SubsystemPower,
		SubsystemAudio,
		SubsystemIMU,
		SubsystemTouch,
		SubsystemDisplay,
	} {
		f.deinitSubsystem(id)
	}

	if f.console != nil {
		f.console.Close()
		f.console = nil
	}

	f.stateMu.Lock()
	f.initialized = false
	f.initFailed = false
	f.bootTime = time.Time{}
	for i := range f.states {
		f.states[i] = StateUninitialized
	}
	f.stateMu.Unlock()
	f.alloc = mem.Allocator{}
	f.logger.Infof("deinit complete")
}

// InitSubsystem brings one subsystem up out of band. Already-initialized
// subsystems are a logged no-op.
func (f *Framework) InitSubsystem(id Subsystem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initSubsystem(id)
}

func (f *Framework) initSubsystem(id Subsystem) error {
	if !id.Valid() {
		return errors.Newf("framework.InitSubsystem", errors.KindInvalidArgument, "unknown subsystem %d", id)
	}
	cap, ok := f.caps[id]
	if !ok {
		return errors.Newf("framework.InitSubsystem", errors.KindNotSupported, "subsystem %s has no capability", id)
	}
	if f.subsystemState(id) != StateUninitialized {
		f.logger.Infof("%s already initialized", id)
		return nil
	}

	f.setState(id, StateInitializing)
	if err := cap.bringUp(); err != nil {
		f.setState(id, StateError)
		fe := errors.Wrap("framework.InitSubsystem", errors.KindOf(err), err)
		fe.Subsystem = id.String()
		errors.Report(fe)
		f.logger.Errorf("%s init failed: %v", id, err)
		if f.onSubsystemError != nil {
			f.onSubsystemError(id, err)
		}
		return err
	}
	f.setState(id, StateReady)
	f.logger.Infof("%s ready", id)
	return nil
}

// DeinitSubsystem tears one subsystem down. Teardown is best-effort: any
// error is logged and the state still returns to UNINITIALIZED.
func (f *Framework) DeinitSubsystem(id Subsystem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deinitSubsystem(id)
}

func (f *Framework) deinitSubsystem(id Subsystem) error {
	if !id.Valid() {
		return errors.Newf("framework.DeinitSubsystem", errors.KindInvalidArgument, "unknown subsystem %d", id)
	}
	if f.subsystemState(id) == StateUninitialized {
		return nil
	}
	if cap, ok := f.caps[id]; ok {
		if err := cap.tearDown(); err != nil {
			f.logger.Warnf("%s teardown: %v", id, err)
		}
	}
	f.setState(id, StateUninitialized)
	return nil
}
