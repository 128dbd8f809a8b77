package framework

import (
	"time"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/gfx"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

func (f *Framework) setState(id Subsystem, s State) {
	f.stateMu.Lock()
	f.states[id] = s
	f.stateMu.Unlock()
}

func (f *Framework) subsystemState(id Subsystem) State {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.states[id]
}

// SubsystemState reports one subsystem's lifecycle state.
func (f *Framework) SubsystemState(id Subsystem) (State, error) {
	if !id.Valid() {
		return StateUninitialized, errors.Newf("framework.SubsystemState", errors.KindInvalidArgument, "unknown subsystem %d", id)
	}
	return f.subsystemState(id), nil
}

// States returns a snapshot of every subsystem's state.
func (f *Framework) States() map[Subsystem]State {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	out := make(map[Subsystem]State, subsystemCount)
	for i := Subsystem(0); i < subsystemCount; i++ {
		out[i] = f.states[i]
	}
	return out
}

// Version returns the framework version string.
func (f *Framework) Version() string { return Version }

// BootTime returns the timestamp Init stamped before any subsystem work,
// zero before the first Init.
func (f *Framework) BootTime() time.Time {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.bootTime
}

// Uptime returns the time since boot, zero before Init.
func (f *Framework) Uptime() time.Duration {
	f.stateMu.Lock()
	boot := f.bootTime
	f.stateMu.Unlock()
	if boot.IsZero() {
		return 0
	}
	return time.Since(boot)
}

// IsReady reports whether the framework is initialized, setup has run and
// the main task is live.
func (f *Framework) IsReady() bool {
	f.stateMu.Lock()
	initialized, started := f.initialized, f.started
	f.stateMu.Unlock()
	return initialized && started && f.setupDone.Load()
}

// Config returns the configuration snapshot the instance was built with.
func (f *Framework) Config() Config { return f.cfg }

// Graphics returns the graphics integration handle, nil while the
// graphics subsystem is down.
func (f *Framework) Graphics() *gfx.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gfx
}

// Hardware accessors. These expose the subsystem-level HAL handles; the
// graphics integration holds its own display and touch handles.

func (f *Framework) Display() hal.Display { return f.deps.Display }
func (f *Framework) Touch() hal.Touch     { return f.deps.Touch }
func (f *Framework) IMU() hal.IMU         { return f.deps.IMU }
func (f *Framework) Audio() hal.Audio     { return f.deps.Audio }
func (f *Framework) Power() hal.Power     { return f.deps.Power }
func (f *Framework) GPIO() hal.GPIO       { return f.deps.GPIO }

// Hook registration. Hooks are optional; register them before Init. Every
// hook is a no-op when unset. Hooks must not re-enter lifecycle entry
// points.

// OnFrameworkInit runs after a fully successful Init.
func (f *Framework) OnFrameworkInit(fn func()) { f.onInit = fn }

// OnFrameworkReady runs on the Start caller once the main task exists.
func (f *Framework) OnFrameworkReady(fn func()) { f.onReady = fn }

// OnSubsystemError runs whenever a subsystem bring-up fails, with the
// subsystem id and the failure.
func (f *Framework) OnSubsystemError(fn func(Subsystem, error)) { f.onSubsystemError = fn }

// OnGraphicsReady runs once the graphics integration is initialized and
// started.
func (f *Framework) OnGraphicsReady(fn func()) { f.onGraphicsReady = fn }
