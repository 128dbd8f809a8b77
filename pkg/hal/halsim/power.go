package halsim

import (
	"sync"
	"time"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Power simulates the battery gauge and solar front-end. Tests drive state
// through SetBattery and SetSolar; threshold crossings fire power events.
type Power struct {
	FailInit  error
	FailStart error

	mu          sync.Mutex
	cfg         hal.PowerConfig
	initialized bool
	started     bool
	mode        hal.PowerMode
	battery     hal.BatteryInfo
	solar       hal.SolarInfo
	eventFn     func(hal.PowerEvent)
}

// NewPower returns an uninitialized simulated power manager with a full,
// discharging battery.
func NewPower() *Power {
	return &Power{
		battery: hal.BatteryInfo{Voltage: 4.1, Percentage: 100, Temperature: 25},
	}
}

// SetBattery installs the battery snapshot. Crossing the configured low and
// critical thresholds, or a charging transition, fires the event callback.
func (p *Power) SetBattery(b hal.BatteryInfo) {
	p.mu.Lock()
	prev := p.battery
	b.Low = float64(b.Percentage) <= p.cfg.LowThresholdPct
	b.Critical = float64(b.Percentage) <= p.cfg.CriticalThresholdPct
	p.battery = b
	fn := p.eventFn
	started := p.started
	p.mu.Unlock()
	if fn == nil || !started {
		return
	}
	now := time.Now()
	if b.Critical && !prev.Critical {
		fn(hal.PowerEvent{Type: hal.PowerEventBatteryCritical, Time: now})
	} else if b.Low && !prev.Low {
		fn(hal.PowerEvent{Type: hal.PowerEventBatteryLow, Time: now})
	}
	if b.Charging != prev.Charging {
		t := hal.PowerEventChargingStop
		if b.Charging {
			t = hal.PowerEventChargingStart
		}
		fn(hal.PowerEvent{Type: t, Time: now})
	}
	if b.Full && !prev.Full {
		fn(hal.PowerEvent{Type: hal.PowerEventBatteryFull, Time: now})
	}
}

// SetSolar installs the solar snapshot and fires activity transitions.
func (p *Power) SetSolar(s hal.SolarInfo) {
	p.mu.Lock()
	prev := p.solar
	p.solar = s
	fn := p.eventFn
	started := p.started
	p.mu.Unlock()
	if fn == nil || !started || s.Active == prev.Active {
		return
	}
	t := hal.PowerEventSolarInactive
	if s.Active {
		t = hal.PowerEventSolarActive
	}
	fn(hal.PowerEvent{Type: t, Time: time.Now()})
}

func (p *Power) Init(cfg hal.PowerConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return errors.New("power.Init", errors.KindInvalidState, "already initialized")
	}
	if p.FailInit != nil {
		return errors.Wrap("power.Init", errors.KindHardware, p.FailInit)
	}
	p.cfg = cfg
	p.mode = cfg.DefaultMode
	p.initialized = true
	return nil
}

func (p *Power) Deinit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	p.started = false
	p.eventFn = nil
	return nil
}

func (p *Power) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return errors.New("power.Start", errors.KindInvalidState, "not initialized")
	}
	if p.FailStart != nil {
		return errors.Wrap("power.Start", errors.KindHardware, p.FailStart)
	}
	p.started = true
	return nil
}

func (p *Power) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	return nil
}

func (p *Power) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized && p.started
}

func (p *Power) SetMode(mode hal.PowerMode) error {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return errors.New("power.SetMode", errors.KindInvalidState, "not initialized")
	}
	changed := mode != p.mode
	p.mode = mode
	fn := p.eventFn
	started := p.started
	p.mu.Unlock()
	if changed && fn != nil && started {
		fn(hal.PowerEvent{Type: hal.PowerEventModeChange, Time: time.Now()})
	}
	return nil
}

func (p *Power) Mode() hal.PowerMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Power) Battery() (hal.BatteryInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return hal.BatteryInfo{}, errors.New("power.Battery", errors.KindInvalidState, "not initialized")
	}
	return p.battery, nil
}

func (p *Power) Solar() (hal.SolarInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return hal.SolarInfo{}, errors.New("power.Solar", errors.KindInvalidState, "not initialized")
	}
	if !p.cfg.EnableSolar {
		return hal.SolarInfo{}, errors.New("power.Solar", errors.KindNotSupported, "solar disabled")
	}
	return p.solar, nil
}

func (p *Power) OnEvent(fn func(ev hal.PowerEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventFn = fn
}
