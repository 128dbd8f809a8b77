package halsim

import (
	"sync"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

type gpioPin struct {
	mode    hal.PinMode
	level   bool
	edge    hal.Edge
	watchFn func()
}

// GPIO simulates the digital pins. Set drives outputs; Drive changes an
// input pin from the outside, firing edge watchers, so interrupt and pulse
// timing code can be exercised.
type GPIO struct {
	mu   sync.Mutex
	pins map[board.Pin]*gpioPin
}

// NewGPIO returns a simulated pin bank with every pin unconfigured.
func NewGPIO() *GPIO {
	return &GPIO{pins: make(map[board.Pin]*gpioPin)}
}

// Drive sets an input pin's level as if external hardware changed it.
// Matching edge watchers run synchronously on the caller's goroutine.
func (g *GPIO) Drive(pin board.Pin, high bool) {
	g.mu.Lock()
	p := g.pin(pin)
	prev := p.level
	p.level = high
	var fn func()
	if p.watchFn != nil && prev != high {
		switch p.edge {
		case hal.EdgeRising:
			if high {
				fn = p.watchFn
			}
		case hal.EdgeFalling:
			if !high {
				fn = p.watchFn
			}
		case hal.EdgeChange:
			fn = p.watchFn
		}
	}
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (g *GPIO) Configure(pin board.Pin, mode hal.PinMode) error {
	if !pin.Valid() {
		return errors.Newf("gpio.Configure", errors.KindInvalidArgument, "invalid pin %d", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pin(pin)
	p.mode = mode
	// Pulls define the resting level of an unconnected input.
	switch mode {
	case hal.PinInputPullup:
		p.level = true
	case hal.PinInputPulldown:
		p.level = false
	}
	return nil
}

func (g *GPIO) Set(pin board.Pin, high bool) error {
	if !pin.Valid() {
		return errors.Newf("gpio.Set", errors.KindInvalidArgument, "invalid pin %d", pin)
	}
	g.mu.Lock()
	p := g.pin(pin)
	if p.mode != hal.PinOutput && p.mode != hal.PinOutputOpenDrain {
		g.mu.Unlock()
		return errors.Newf("gpio.Set", errors.KindInvalidState, "pin %d is not an output", pin)
	}
	prev := p.level
	p.level = high
	var fn func()
	if p.watchFn != nil && prev != high {
		switch p.edge {
		case hal.EdgeRising:
			if high {
				fn = p.watchFn
			}
		case hal.EdgeFalling:
			if !high {
				fn = p.watchFn
			}
		case hal.EdgeChange:
			fn = p.watchFn
		}
	}
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (g *GPIO) Get(pin board.Pin) (bool, error) {
	if !pin.Valid() {
		return false, errors.Newf("gpio.Get", errors.KindInvalidArgument, "invalid pin %d", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin(pin).level, nil
}

func (g *GPIO) Watch(pin board.Pin, edge hal.Edge, fn func()) error {
	if !pin.Valid() {
		return errors.Newf("gpio.Watch", errors.KindInvalidArgument, "invalid pin %d", pin)
	}
	if fn == nil {
		return errors.New("gpio.Watch", errors.KindInvalidArgument, "nil watcher")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pin(pin)
	if p.watchFn != nil {
		return errors.Newf("gpio.Watch", errors.KindInvalidState, "pin %d already watched", pin)
	}
	p.edge = edge
	p.watchFn = fn
	return nil
}

func (g *GPIO) Unwatch(pin board.Pin) error {
	if !pin.Valid() {
		return errors.Newf("gpio.Unwatch", errors.KindInvalidArgument, "invalid pin %d", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pin(pin).watchFn = nil
	return nil
}

// pin returns the pin record, allocating on first touch. Callers hold mu.
func (g *GPIO) pin(n board.Pin) *gpioPin {
	p, ok := g.pins[n]
	if !ok {
		p = &gpioPin{}
		g.pins[n] = p
	}
	return p
}
