package hal

import "github.com/go-tab5/tab5duino/pkg/board"

// PinMode configures a GPIO pin's direction and pulls.
type PinMode uint8

const (
	PinInput PinMode = iota
	PinInputPullup
	PinInputPulldown
	PinOutput
	PinOutputOpenDrain
)

// Edge selects which level transitions trigger a pin watch.
type Edge uint8

const (
	EdgeRising Edge = iota
	EdgeFalling
	EdgeChange
)

// GPIO is the digital pin contract the Arduino compatibility shim sits on.
type GPIO interface {
	// Configure sets the pin direction and pull configuration.
	Configure(pin board.Pin, mode PinMode) error
	// Set drives an output pin.
	Set(pin board.Pin, high bool) error
	// Get samples a pin's level.
	Get(pin board.Pin) (bool, error)
	// Watch registers fn to run on the given edge. One watcher per pin.
	Watch(pin board.Pin, edge Edge, fn func()) error
	// Unwatch removes the pin's watcher.
	Unwatch(pin board.Pin) error
}
