package halsim

import (
	"sync"
	"time"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// Audio simulates the PDM microphone and I2S speaker codec. Tests feed
// capture data through QueueMic and inspect playback through Played.
type Audio struct {
	FailInit  error
	FailStart error

	mu          sync.Mutex
	cfg         hal.AudioConfig
	initialized bool
	started     bool
	micGain     uint8
	volume      uint8
	micQueue    []int16
	played      []int16
	eventFn     func(hal.AudioEvent)
}

// NewAudio returns an uninitialized simulated audio codec.
func NewAudio() *Audio { return &Audio{} }

// QueueMic appends samples to the simulated capture stream and signals
// that microphone data is ready.
func (a *Audio) QueueMic(samples []int16) {
	a.mu.Lock()
	a.micQueue = append(a.micQueue, samples...)
	fn := a.eventFn
	started := a.started
	a.mu.Unlock()
	if fn != nil && started {
		fn(hal.AudioEvent{Type: hal.AudioEventMicDataReady, Time: time.Now()})
	}
}

// Played returns everything written to the speaker since Init.
func (a *Audio) Played() []int16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int16, len(a.played))
	copy(out, a.played)
	return out
}

func (a *Audio) Init(cfg hal.AudioConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return errors.New("audio.Init", errors.KindInvalidState, "already initialized")
	}
	if a.FailInit != nil {
		return errors.Wrap("audio.Init", errors.KindHardware, a.FailInit)
	}
	a.cfg = cfg
	a.micGain = cfg.MicGain
	a.volume = cfg.SpkVolume
	a.initialized = true
	return nil
}

func (a *Audio) Deinit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = false
	a.started = false
	a.micQueue = nil
	a.played = nil
	a.eventFn = nil
	return nil
}

func (a *Audio) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return errors.New("audio.Start", errors.KindInvalidState, "not initialized")
	}
	if a.FailStart != nil {
		return errors.Wrap("audio.Start", errors.KindHardware, a.FailStart)
	}
	a.started = true
	return nil
}

func (a *Audio) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = false
	return nil
}

func (a *Audio) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized && a.started
}

func (a *Audio) ReadMic(buf []int16) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return 0, errors.New("audio.ReadMic", errors.KindInvalidState, "not initialized")
	}
	if !a.cfg.MicEnable {
		return 0, errors.New("audio.ReadMic", errors.KindNotSupported, "microphone disabled")
	}
	n := copy(buf, a.micQueue)
	a.micQueue = a.micQueue[n:]
	return n, nil
}

func (a *Audio) WriteSpeaker(buf []int16) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return 0, errors.New("audio.WriteSpeaker", errors.KindInvalidState, "not initialized")
	}
	if !a.cfg.SpkEnable {
		return 0, errors.New("audio.WriteSpeaker", errors.KindNotSupported, "speaker disabled")
	}
	a.played = append(a.played, buf...)
	return len(buf), nil
}

func (a *Audio) SetMicGain(gain uint8) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return errors.New("audio.SetMicGain", errors.KindInvalidState, "not initialized")
	}
	a.micGain = gain
	return nil
}

func (a *Audio) SetVolume(volume uint8) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return errors.New("audio.SetVolume", errors.KindInvalidState, "not initialized")
	}
	a.volume = volume
	return nil
}

func (a *Audio) OnEvent(fn func(ev hal.AudioEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventFn = fn
}
