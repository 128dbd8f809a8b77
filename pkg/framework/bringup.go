package framework

import (
	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/gfx"
	"github.com/go-tab5/tab5duino/pkg/hal"
	"github.com/go-tab5/tab5duino/pkg/mem"
)

// Subsystem bring-ups follow the same shape: HAL init with the board's
// wiring, then start. Teardown is stop then deinit; HAL deinits do not
// fail in a way the controller can act on, so only the error is carried.

func bringUpDisplay(d hal.Display) error {
	if err := d.Init(hal.DisplayConfig{
		Width:          board.DisplayWidth,
		Height:         board.DisplayHeight,
		BitsPerPixel:   board.DisplayBitsPerPixel,
		PixelClockHz:   board.DisplayPixelClockHz,
		BacklightLevel: 255,
	}); err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		d.Deinit()
		return err
	}
	return nil
}

func bringUpTouch(t hal.Touch) error {
	if err := t.Init(hal.TouchConfig{
		I2CAddr:          board.TouchI2CAddr,
		InterruptPin:     board.TouchInt,
		ResetPin:         board.TouchRst,
		SDAPin:           board.TouchSDA,
		SCLPin:           board.TouchSCL,
		I2CFrequencyHz:   board.TouchI2CFreqHz,
		EnableMultiTouch: true,
	}); err != nil {
		return err
	}
	if err := t.Start(); err != nil {
		t.Deinit()
		return err
	}
	return nil
}

func bringUpIMU(m hal.IMU) error {
	if err := m.Init(hal.IMUConfig{
		I2CAddr:     board.IMUI2CAddr,
		SDAPin:      board.IMUSDA,
		SCLPin:      board.IMUSCL,
		Int1Pin:     board.IMUInt1,
		Int2Pin:     board.IMUInt2,
		AccelRangeG: 4,
		AccelRateHz: 100,
		AccelEnable: true,
		GyroRangeDPS: 500,
		GyroRateHz:  100,
		GyroEnable:  true,
	}); err != nil {
		return err
	}
	if err := m.Start(); err != nil {
		m.Deinit()
		return err
	}
	return nil
}

func bringUpAudio(a hal.Audio) error {
	if err := a.Init(hal.AudioConfig{
		MicDataPin: board.MicData,
		MicClkPin:  board.MicClk,
		SpkDataPin: board.SpkData,
		SpkBClkPin: board.SpkBClk,
		SpkWSPin:   board.SpkWS,
		MicFormat: hal.AudioFormat{
			SampleRate:    board.AudioSampleRate,
			BitsPerSample: 16,
			Channels:      1,
		},
		MicEnable: true,
		MicGain:   128,
		SpkFormat: hal.AudioFormat{
			SampleRate:    board.AudioSampleRate,
			BitsPerSample: 16,
			Channels:      board.AudioChannels,
		},
		SpkEnable: true,
		SpkVolume: 128,
	}); err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		a.Deinit()
		return err
	}
	return nil
}

func bringUpPower(p hal.Power) error {
	if err := p.Init(hal.PowerConfig{
		BatteryCapacityMAh:   board.BatteryCapacityMAh,
		LowThresholdPct:      20,
		CriticalThresholdPct: 5,
		EnableSolar:          true,
		DefaultMode:          hal.PowerModeBalanced,
	}); err != nil {
		return err
	}
	if err := p.Start(); err != nil {
		p.Deinit()
		return err
	}
	return nil
}

func tearDownHAL(l hal.Lifecycle) error {
	l.Stop()
	return l.Deinit()
}

// bringUpGraphics initializes and starts the graphics integration with its
// own display and touch handles. The graphics-ready hook fires once it is
// live.
func (f *Framework) bringUpGraphics() error {
	alloc := f.alloc
	if !f.cfg.Graphics.UseExternalRAM {
		alloc = mem.Allocator{Internal: f.alloc.Internal}
	}
	h, err := gfx.Init(f.cfg.Graphics.gfxConfig(), gfx.Deps{
		Engine:  f.deps.Engine,
		Display: f.deps.GfxDisplay,
		Touch:   f.deps.GfxTouch,
		Alloc:   alloc,
	})
	if err != nil {
		return err
	}
	if err := h.Start(); err != nil {
		h.Deinit()
		return err
	}
	f.gfx = h
	if f.onGraphicsReady != nil {
		f.onGraphicsReady()
	}
	return nil
}

func (f *Framework) tearDownGraphics() error {
	f.gfx.Deinit()
	f.gfx = nil
	return nil
}
