package framework

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-tab5/tab5duino/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tab5duino.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
auto_init_audio: true
auto_init_graphics: false
loop_task_priority: 3
graphics:
  buffer_lines: 60
  tick_period_ms: 2
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.AutoInitAudio || cfg.AutoInitGraphics {
		t.Fatalf("overridden flags not applied: %+v", cfg)
	}
	if cfg.LoopTaskPriority != 3 {
		t.Fatalf("loop_task_priority = %d", cfg.LoopTaskPriority)
	}
	if cfg.Graphics.BufferLines != 60 || cfg.Graphics.TickPeriodMS != 2 {
		t.Fatalf("graphics overrides not applied: %+v", cfg.Graphics)
	}
	// Untouched fields keep their defaults.
	def := DefaultConfig()
	if cfg.AutoInitDisplay != def.AutoInitDisplay || cfg.EnablePSRAM != def.EnablePSRAM {
		t.Fatalf("defaults disturbed: %+v", cfg)
	}
	if cfg.LoopStackSize != def.LoopStackSize {
		t.Fatalf("loop_stack_size = %d", cfg.LoopStackSize)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.IsInvalidArgument(err) {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "auto_init_display: [not a bool")
	if _, err := LoadConfig(path); !errors.IsInvalidArgument(err) {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}

func TestGraphicsConfigMapping(t *testing.T) {
	g := GraphicsConfig{
		EnableAccel: true,
		BufferLines: 90,
		Rotation:    2,
		TickPeriodMS: 7,
	}
	c := g.gfxConfig()
	if !c.EnableAccel || c.BufferLines != 90 || int(c.Rotation) != 2 {
		t.Fatalf("mapped config = %+v", c)
	}
	if c.TickPeriod.Milliseconds() != 7 {
		t.Fatalf("tick period = %v", c.TickPeriod)
	}
}
