// Package render defines the narrow contract the framework uses to drive a
// rendering engine: initialization, a one-shot processing step, surface
// flushing, pointer input, and tick delivery. The engine is a black box to
// the rest of the framework; pkg/gfx owns the task and lock around it.
package render

import (
	"time"

	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Surface describes a display the engine renders to. The engine draws into
// the registered buffers one strip at a time and hands each strip to Flush.
//
// Flush receives the strip region, the pixel data, and a completion
// function. The completion function must be called exactly once per flush,
// whatever path the pixels took; the engine will not reuse the buffer until
// it has been called.
type Surface struct {
	Width  int
	Height int

	// Buffers are the draw buffers, each BufferLines scanlines tall.
	// One buffer renders while the other flushes when two are given.
	Buffers     [][]hal.RGB565
	BufferLines int

	Flush func(area hal.Rect, pixels []hal.RGB565, done func())

	// Wait, when set, is called once per processing step that flushed,
	// for vsync pacing. May be nil.
	Wait func()
}

// PointerState is one sample of the collapsed single-pointer input path.
type PointerState struct {
	X       int
	Y       int
	Pressed bool
}

// Engine is the rendering engine contract.
type Engine interface {
	// Init prepares engine state. It must be called before anything else.
	Init() error
	// Deinit releases engine state. Safe after a failed or absent Init.
	Deinit()

	// SetLogSink routes engine diagnostics to the framework's logger.
	SetLogSink(fn func(msg string))

	// RegisterSurface installs the display surface. One surface per engine.
	RegisterSurface(s Surface) error
	// RegisterPointer installs the pointer sampling callback.
	RegisterPointer(read func() PointerState) error

	// TickInc advances the engine clock. Called from the tick source.
	TickInc(d time.Duration)

	// ProcessStep runs one iteration of engine work (input sampling,
	// timer handling, rendering and flushing of dirty regions) and
	// returns the recommended delay before the next call.
	ProcessStep() time.Duration

	// CreateScreen allocates a new screen sized to the surface.
	CreateScreen() (*Screen, error)
	// LoadScreen makes s the active screen and marks it fully dirty.
	LoadScreen(s *Screen) error
	// ActiveScreen returns the currently loaded screen, or nil.
	ActiveScreen() *Screen
}
