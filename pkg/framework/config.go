package framework

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/gfx"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

// GraphicsConfig is the yaml-facing graphics section. It maps onto
// gfx.Config; durations are carried in milliseconds as firmware config
// files do.
type GraphicsConfig struct {
	EnableAccel        bool `yaml:"enable_accel"`
	EnableVSync        bool `yaml:"enable_vsync"`
	EnableDoubleBuffer bool `yaml:"enable_double_buffer"`
	BufferLines        int  `yaml:"buffer_lines"`
	// Rotation is in quarter turns clockwise, 0-3.
	Rotation         int  `yaml:"rotation"`
	EnableMultiTouch bool `yaml:"enable_multi_touch"`
	EnableGestures   bool `yaml:"enable_gestures"`
	TickPeriodMS     int  `yaml:"tick_period_ms"`
	UseExternalRAM   bool `yaml:"use_external_ram"`
}

func (g GraphicsConfig) gfxConfig() gfx.Config {
	c := gfx.DefaultConfig()
	c.EnableAccel = g.EnableAccel
	c.EnableVSync = g.EnableVSync
	c.EnableDoubleBuffer = g.EnableDoubleBuffer
	c.EnableMultiTouch = g.EnableMultiTouch
	c.EnableGestures = g.EnableGestures
	c.UseExternalRAM = g.UseExternalRAM
	if g.BufferLines > 0 {
		c.BufferLines = g.BufferLines
	}
	if g.Rotation >= 0 && g.Rotation <= 3 {
		c.Rotation = hal.Rotation(g.Rotation)
	}
	if g.TickPeriodMS > 0 {
		c.TickPeriod = time.Duration(g.TickPeriodMS) * time.Millisecond
	}
	return c
}

// Config is the framework configuration snapshot. Init copies it into the
// instance; later mutations of the caller's copy have no effect.
type Config struct {
	AutoInitDisplay  bool `yaml:"auto_init_display"`
	AutoInitTouch    bool `yaml:"auto_init_touch"`
	AutoInitIMU      bool `yaml:"auto_init_imu"`
	AutoInitAudio    bool `yaml:"auto_init_audio"`
	AutoInitGraphics bool `yaml:"auto_init_graphics"`

	EnablePSRAM     bool   `yaml:"enable_psram"`
	EnableUSBSerial bool   `yaml:"enable_usb_serial"`
	ConsoleDevice   string `yaml:"console_device"`

	LoopStackSize    int `yaml:"loop_stack_size"`
	LoopTaskPriority int `yaml:"loop_task_priority"`
	LoopTaskCore     int `yaml:"loop_task_core"`

	Graphics GraphicsConfig `yaml:"graphics"`
}

// DefaultConfig returns the stock framework configuration: display, touch,
// IMU and graphics auto-initialized, audio off, PSRAM and the USB-serial
// console on.
func DefaultConfig() Config {
	g := gfx.DefaultConfig()
	return Config{
		AutoInitDisplay:  true,
		AutoInitTouch:    true,
		AutoInitIMU:      true,
		AutoInitAudio:    false,
		AutoInitGraphics: true,
		EnablePSRAM:      true,
		EnableUSBSerial:  true,
		LoopStackSize:    8192,
		LoopTaskPriority: 1,
		LoopTaskCore:     1,
		Graphics: GraphicsConfig{
			EnableAccel:        g.EnableAccel,
			EnableVSync:        g.EnableVSync,
			EnableDoubleBuffer: g.EnableDoubleBuffer,
			BufferLines:        g.BufferLines,
			EnableMultiTouch:   g.EnableMultiTouch,
			EnableGestures:     g.EnableGestures,
			TickPeriodMS:       int(g.TickPeriod / time.Millisecond),
			UseExternalRAM:     g.UseExternalRAM,
		},
	}
}

// LoadConfig reads a yaml file and overlays it on DefaultConfig, so a
// config file only needs the fields it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap("framework.LoadConfig", errors.KindInvalidArgument, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap("framework.LoadConfig", errors.KindInvalidArgument, err)
	}
	return cfg, nil
}
