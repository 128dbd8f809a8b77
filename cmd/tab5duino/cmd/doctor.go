package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/framework"
)

func init() {
	RegisterCommand(&Command{
		Name:  "doctor",
		Short: "Inspect a firmware project and report its configuration",
		Long: `Doctor resolves the firmware project in the current directory (or the
directory given as an argument): it locates go.mod for the module path,
overlays tab5duino.yaml on the default framework configuration when one
is present, and prints the effective setup.`,
		Usage: "tab5duino doctor [dir]",
		Run:   runDoctor,
	})
}

func runDoctor(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := findProjectRoot(dir)
	if err != nil {
		return err
	}
	module, err := modulePath(root)
	if err != nil {
		return err
	}

	cfg := framework.DefaultConfig()
	cfgPath := filepath.Join(root, "tab5duino.yaml")
	cfgSource := "defaults"
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = framework.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("tab5duino.yaml: %w", err)
		}
		cfgSource = cfgPath
	}

	fmt.Printf("Project:    %s\n", root)
	fmt.Printf("Module:     %s\n", module)
	fmt.Printf("Board:      %s (%s), %dx%d @ %dHz\n",
		board.Name, board.Variant, board.DisplayWidth, board.DisplayHeight, board.DisplayRefreshHz)
	fmt.Printf("Config:     %s\n", cfgSource)
	fmt.Println()
	fmt.Println("Subsystems:")
	fmt.Printf("  display   auto=%t\n", cfg.AutoInitDisplay)
	fmt.Printf("  touch     auto=%t\n", cfg.AutoInitTouch)
	fmt.Printf("  imu       auto=%t\n", cfg.AutoInitIMU)
	fmt.Printf("  audio     auto=%t\n", cfg.AutoInitAudio)
	fmt.Printf("  power     auto=true\n")
	fmt.Printf("  graphics  auto=%t\n", cfg.AutoInitGraphics)
	fmt.Println()
	fmt.Println("Graphics:")
	fmt.Printf("  accel=%t vsync=%t double_buffer=%t buffer_lines=%d tick=%dms external_ram=%t\n",
		cfg.Graphics.EnableAccel, cfg.Graphics.EnableVSync, cfg.Graphics.EnableDoubleBuffer,
		cfg.Graphics.BufferLines, cfg.Graphics.TickPeriodMS, cfg.Graphics.UseExternalRAM)
	fmt.Println()
	fmt.Printf("Memory:     psram=%t usb_serial=%t\n", cfg.EnablePSRAM, cfg.EnableUSBSerial)
	fmt.Printf("Main task:  stack=%d priority=%d core=%d\n",
		cfg.LoopStackSize, cfg.LoopTaskPriority, cfg.LoopTaskCore)
	return nil
}

// findProjectRoot walks up from dir to find go.mod.
func findProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(abs, "go.mod")); err == nil {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		abs = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}
