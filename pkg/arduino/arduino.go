// Package arduino is the Arduino compatibility shim: familiar timing, pin
// I/O, interrupt and utility calls backed by the framework's GPIO HAL and
// clock. Bind wires the backend; Run builds a whole framework around a
// setup/loop pair the way an Arduino sketch expects.
package arduino

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Pin levels.
const (
	Low  = false
	High = true
)

// Pin modes, mirroring the Arduino constants.
const (
	Input         = hal.PinInput
	InputPullup   = hal.PinInputPullup
	InputPulldown = hal.PinInputPulldown
	Output        = hal.PinOutput
	OutputOpenDrain = hal.PinOutputOpenDrain
)

// Interrupt edges.
const (
	Rising  = hal.EdgeRising
	Falling = hal.EdgeFalling
	Change  = hal.EdgeChange
)

// BitOrder selects shift I/O bit order.
type BitOrder uint8

const (
	LSBFirst BitOrder = iota
	MSBFirst
)

var (
	mu    sync.RWMutex
	gpio  hal.GPIO
	epoch = time.Now()

	randMu  sync.Mutex
	randSrc = rand.New(rand.NewSource(1))
)

// Bind wires the shim to a GPIO backend and a boot timestamp. The
// framework calls it during Run; standalone users call it directly.
func Bind(g hal.GPIO, boot time.Time) {
	mu.Lock()
	defer mu.Unlock()
	gpio = g
	if !boot.IsZero() {
		epoch = boot
	}
}

func backend() (hal.GPIO, error) {
	mu.RLock()
	defer mu.RUnlock()
	if gpio == nil {
		return nil, errors.New("arduino", errors.KindInvalidState, "no GPIO backend bound")
	}
	return gpio, nil
}

// Millis returns milliseconds since boot. Wraps after about 49 days, as
// the Arduino call does.
func Millis() uint32 {
	mu.RLock()
	e := epoch
	mu.RUnlock()
	return uint32(time.Since(e) / time.Millisecond)
}

// Micros returns microseconds since boot, wrapping after about 71 minutes.
func Micros() uint32 {
	mu.RLock()
	e := epoch
	mu.RUnlock()
	return uint32(time.Since(e) / time.Microsecond)
}

// Delay blocks for ms milliseconds.
func Delay(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// DelayMicroseconds blocks for us microseconds.
func DelayMicroseconds(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// PinMode configures a pin's direction and pulls.
func PinMode(pin board.Pin, mode hal.PinMode) error {
	g, err := backend()
	if err != nil {
		return err
	}
	return g.Configure(pin, mode)
}

// DigitalWrite drives an output pin.
func DigitalWrite(pin board.Pin, level bool) error {
	g, err := backend()
	if err != nil {
		return err
	}
	return g.Set(pin, level)
}

// DigitalRead samples a pin.
func DigitalRead(pin board.Pin) (bool, error) {
	g, err := backend()
	if err != nil {
		return false, err
	}
	return g.Get(pin)
}

// AttachInterrupt registers fn to run on the given edge of pin.
func AttachInterrupt(pin board.Pin, edge hal.Edge, fn func()) error {
	g, err := backend()
	if err != nil {
		return err
	}
	return g.Watch(pin, edge, fn)
}

// DetachInterrupt removes a pin's interrupt handler.
func DetachInterrupt(pin board.Pin) error {
	g, err := backend()
	if err != nil {
		return err
	}
	return g.Unwatch(pin)
}

// PulseIn measures the duration of the next pulse at the given level on
// pin: it waits out any pulse already in progress, waits for the pulse to
// start, then times it until the level drops. Returns a Timeout error if
// the whole measurement does not fit in timeout.
func PulseIn(pin board.Pin, level bool, timeout time.Duration) (time.Duration, error) {
	g, err := backend()
	if err != nil {
		return 0, err
	}
	deadline := time.Now().Add(timeout)

	// Wait for any in-progress pulse to end.
	for {
		v, err := g.Get(pin)
		if err != nil {
			return 0, err
		}
		if v != level {
			break
		}
		if time.Now().After(deadline) {
			return 0, errors.New("arduino.PulseIn", errors.KindTimeout, "pulse already in progress")
		}
		runtime.Gosched()
	}
	// Wait for the pulse to start.
	for {
		v, err := g.Get(pin)
		if err != nil {
			return 0, err
		}
		if v == level {
			break
		}
		if time.Now().After(deadline) {
			return 0, errors.New("arduino.PulseIn", errors.KindTimeout, "pulse never started")
		}
		runtime.Gosched()
	}
	start := time.Now()
	// Time it until the level drops.
	for {
		v, err := g.Get(pin)
		if err != nil {
			return 0, err
		}
		if v != level {
			return time.Since(start), nil
		}
		if time.Now().After(deadline) {
			return 0, errors.New("arduino.PulseIn", errors.KindTimeout, "pulse never ended")
		}
		runtime.Gosched()
	}
}

// ShiftOut clocks val out on dataPin, pulsing clockPin once per bit.
func ShiftOut(dataPin, clockPin board.Pin, order BitOrder, val uint8) error {
	g, err := backend()
	if err != nil {
		return err
	}
	for i := 0; i < 8; i++ {
		var bit bool
		if order == LSBFirst {
			bit = val&(1<<i) != 0
		} else {
			bit = val&(1<<(7-i)) != 0
		}
		if err := g.Set(dataPin, bit); err != nil {
			return err
		}
		if err := g.Set(clockPin, true); err != nil {
			return err
		}
		if err := g.Set(clockPin, false); err != nil {
			return err
		}
	}
	return nil
}

// ShiftIn clocks a byte in from dataPin, pulsing clockPin once per bit.
func ShiftIn(dataPin, clockPin board.Pin, order BitOrder) (uint8, error) {
	g, err := backend()
	if err != nil {
		return 0, err
	}
	var val uint8
	for i := 0; i < 8; i++ {
		if err := g.Set(clockPin, true); err != nil {
			return 0, err
		}
		bit, err := g.Get(dataPin)
		if err != nil {
			return 0, err
		}
		if bit {
			if order == LSBFirst {
				val |= 1 << i
			} else {
				val |= 1 << (7 - i)
			}
		}
		if err := g.Set(clockPin, false); err != nil {
			return 0, err
		}
	}
	return val, nil
}

// Map re-maps x from the range [inMin, inMax] to [outMin, outMax] using
// integer math, Arduino style: no clamping, truncating division.
func Map(x, inMin, inMax, outMin, outMax int64) int64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// MapF is Map in floating point.
func MapF(x, inMin, inMax, outMin, outMax float64) float64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// RandomSeed seeds the shim's pseudo-random generator.
func RandomSeed(seed int64) {
	randMu.Lock()
	defer randMu.Unlock()
	randSrc = rand.New(rand.NewSource(seed))
}

// Random returns a pseudo-random integer in [0, max). A non-positive max
// returns 0.
func Random(max int64) int64 {
	if max <= 0 {
		return 0
	}
	randMu.Lock()
	defer randMu.Unlock()
	return randSrc.Int63n(max)
}

// RandomRange returns a pseudo-random integer in [min, max).
func RandomRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + Random(max-min)
}
