package gfx

import (
	"time"

	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Config holds the graphics integration options. Zero values are filled in
// from DefaultConfig by Init.
type Config struct {
	EnableAccel        bool
	EnableVSync        bool
	EnableDoubleBuffer bool

	// BufferLines is the draw buffer height in scanlines. Each buffer is
	// the panel width times this many RGB565 pixels.
	BufferLines int

	Rotation hal.Rotation

	EnableMultiTouch bool
	EnableGestures   bool
	// GestureMoveThreshold is the minimum movement in pixels before a
	// contact counts as a move gesture.
	GestureMoveThreshold int
	// SwipeThreshold is the minimum travel in pixels for a swipe.
	SwipeThreshold int

	TaskPriority  int
	TaskStackSize int
	TaskCore      int

	// TickPeriod is the engine clock granularity.
	TickPeriod time.Duration

	// UseExternalRAM places draw buffers in external RAM when available.
	UseExternalRAM bool
	// CacheSize is the engine-side object cache budget in bytes.
	CacheSize int
}

// DefaultConfig returns the stock Tab5 graphics configuration.
func DefaultConfig() Config {
	return Config{
		EnableAccel:          true,
		EnableVSync:          true,
		EnableDoubleBuffer:   true,
		BufferLines:          120,
		Rotation:             hal.Rotation0,
		EnableMultiTouch:     true,
		EnableGestures:       true,
		GestureMoveThreshold: 10,
		SwipeThreshold:       50,
		TaskPriority:         2,
		TaskStackSize:        8192,
		TaskCore:             1,
		TickPeriod:           5 * time.Millisecond,
		UseExternalRAM:       true,
		CacheSize:            2 * 1024 * 1024,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BufferLines <= 0 {
		c.BufferLines = def.BufferLines
	}
	if c.GestureMoveThreshold <= 0 {
		c.GestureMoveThreshold = def.GestureMoveThreshold
	}
	if c.SwipeThreshold <= 0 {
		c.SwipeThreshold = def.SwipeThreshold
	}
	if c.TaskPriority <= 0 {
		c.TaskPriority = def.TaskPriority
	}
	if c.TaskStackSize <= 0 {
		c.TaskStackSize = def.TaskStackSize
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = def.TickPeriod
	}
	if c.CacheSize <= 0 {
		c.CacheSize = def.CacheSize
	}
	return c
}
