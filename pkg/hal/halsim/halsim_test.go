package halsim

import (
	stderrors "errors"
	"testing"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal"
)

func TestDisplayLifecycle(t *testing.T) {
	d := NewDisplay()
	if err := d.Start(); !errors.IsInvalidState(err) {
		t.Fatalf("Start before Init = %v", err)
	}
	if err := d.Init(hal.DisplayConfig{Width: 32, Height: 16, EnableAccel: true}); err != nil {
		t.Fatal(err)
	}
	if err := d.Init(hal.DisplayConfig{}); !errors.IsInvalidState(err) {
		t.Fatalf("double Init = %v", err)
	}
	if d.Ready() {
		t.Fatal("ready before Start")
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	if !d.Ready() {
		t.Fatal("not ready after Start")
	}
	if err := d.Deinit(); err != nil {
		t.Fatal(err)
	}
	if err := d.Init(hal.DisplayConfig{Width: 32, Height: 16}); err != nil {
		t.Fatalf("Init after Deinit: %v", err)
	}
}

func TestDisplayDrawsIntoFramebuffer(t *testing.T) {
	d := NewDisplay()
	if err := d.Init(hal.DisplayConfig{Width: 8, Height: 4, EnableAccel: true}); err != nil {
		t.Fatal(err)
	}
	pixels := make([]hal.RGB565, 4)
	for i := range pixels {
		pixels[i] = hal.ColorRed
	}
	if err := d.DrawBitmap(2, 1, 2, 2, pixels); err != nil {
		t.Fatal(err)
	}
	got := d.Image().RGBAAt(2, 1)
	if got.R < 0xF0 || got.G != 0 || got.B != 0 {
		t.Fatalf("pixel = %+v, want red", got)
	}
	if out := d.Image().RGBAAt(0, 0); out.R != 0 {
		t.Fatalf("untouched pixel = %+v", out)
	}
}

func TestDisplayAccelPaths(t *testing.T) {
	d := NewDisplay()
	if err := d.Init(hal.DisplayConfig{Width: 8, Height: 4}); err != nil {
		t.Fatal(err)
	}
	// Accel disabled in config: NotSupported.
	err := d.AccelBlend(0, 0, make([]hal.RGB565, 8), 0, 0, 4, 2, 0xFF)
	if !errors.IsNotSupported(err) {
		t.Fatalf("blend with accel disabled = %v", err)
	}

	d2 := NewDisplay()
	if err := d2.Init(hal.DisplayConfig{Width: 8, Height: 4, EnableAccel: true}); err != nil {
		t.Fatal(err)
	}
	d2.FailAccel = stderrors.New("ppa hang")
	err = d2.AccelBlend(0, 0, make([]hal.RGB565, 8), 0, 0, 4, 2, 0xFF)
	if !errors.IsHardware(err) {
		t.Fatalf("injected accel failure = %v", err)
	}
	d2.FailAccel = nil
	src := []hal.RGB565{hal.ColorGreen, hal.ColorGreen, hal.ColorGreen, hal.ColorGreen}
	if err := d2.AccelBlend(1, 1, src, 0, 0, 2, 2, 0xFF); err != nil {
		t.Fatal(err)
	}
	if d2.Blends != 1 {
		t.Fatalf("blend count = %d", d2.Blends)
	}
	if got := d2.Image().RGBAAt(1, 1); got.G < 0xE0 {
		t.Fatalf("blended pixel = %+v, want green", got)
	}
}

func TestDisplayFillAndClear(t *testing.T) {
	d := NewDisplay()
	if err := d.Init(hal.DisplayConfig{Width: 4, Height: 4}); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(hal.ColorWhite); err != nil {
		t.Fatal(err)
	}
	if got := d.Image().RGBAAt(3, 3); got.R != 0xF8 && got.R != 0xFF {
		t.Fatalf("cleared pixel = %+v", got)
	}
	if err := d.FillRect(hal.Rect{X: 0, Y: 0, W: 2, H: 2}, hal.ColorBlue); err != nil {
		t.Fatal(err)
	}
	if got := d.Image().RGBAAt(1, 1); got.B < 0xF0 {
		t.Fatalf("filled pixel = %+v, want blue", got)
	}
	if err := d.DrawPixel(9, 0, hal.ColorRed); !errors.IsInvalidArgument(err) {
		t.Fatalf("out-of-bounds pixel = %v", err)
	}
}

func TestTouchPointsAndTransform(t *testing.T) {
	tp := NewTouch()
	if err := tp.Init(hal.TouchConfig{}); err != nil {
		t.Fatal(err)
	}
	tp.SetPoints(hal.TouchPoint{X: 10, Y: 20, Pressure: 30, Valid: true})
	dst := make([]hal.TouchPoint, 4)
	n, err := tp.ReadPoints(dst)
	if err != nil || n != 1 {
		t.Fatalf("ReadPoints = %d, %v", n, err)
	}
	if dst[0].X != 10 || dst[0].Y != 20 {
		t.Fatalf("point = %+v", dst[0])
	}
	touched, _ := tp.Touched()
	if !touched {
		t.Fatal("not touched with a valid contact")
	}

	if err := tp.SetTransform(false, false, true); err != nil {
		t.Fatal(err)
	}
	n, _ = tp.ReadPoints(dst)
	if n != 1 || dst[0].X != 20 || dst[0].Y != 10 {
		t.Fatalf("swapped point = %+v", dst[0])
	}

	tp.SetPoints(hal.TouchPoint{X: 10, Y: 20, Pressure: 0, Valid: true})
	touched, _ = tp.Touched()
	if touched {
		t.Fatal("touched with a zero-pressure contact")
	}
}

func TestTouchEventDelivery(t *testing.T) {
	tp := NewTouch()
	if err := tp.Init(hal.TouchConfig{}); err != nil {
		t.Fatal(err)
	}
	var frames [][]hal.TouchPoint
	tp.OnEvent(func(pts []hal.TouchPoint) { frames = append(frames, pts) })

	// Events only flow while started.
	tp.SetPoints(hal.TouchPoint{X: 1, Y: 1, Pressure: 1, Valid: true})
	if len(frames) != 0 {
		t.Fatal("event delivered before Start")
	}
	if err := tp.Start(); err != nil {
		t.Fatal(err)
	}
	tp.SetPoints(
		hal.TouchPoint{X: 1, Y: 1, Pressure: 1, Valid: true},
		hal.TouchPoint{X: 2, Y: 2, Pressure: 1, Valid: true},
	)
	if len(frames) != 1 || len(frames[0]) != 2 {
		t.Fatalf("frames = %v", frames)
	}
}

func TestIMUOrientation(t *testing.T) {
	m := NewIMU()
	if err := m.Init(hal.IMUConfig{}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	o, err := m.Orientation()
	if err != nil || o != hal.OrientationFaceUp {
		t.Fatalf("resting orientation = %v, %v", o, err)
	}

	var seen []hal.Orientation
	m.OnOrientation(func(o hal.Orientation) { seen = append(seen, o) })
	m.SetAccel(0, 1, 0)
	if o, _ := m.Orientation(); o != hal.OrientationPortrait {
		t.Fatalf("orientation = %v", o)
	}
	if len(seen) != 1 || seen[0] != hal.OrientationPortrait {
		t.Fatalf("orientation callbacks = %v", seen)
	}
	// Same attitude again: no callback.
	m.SetAccel(0, 0.9, 0.1)
	if len(seen) != 1 {
		t.Fatalf("duplicate orientation delivered: %v", seen)
	}
}

func TestPowerEvents(t *testing.T) {
	p := NewPower()
	if err := p.Init(hal.PowerConfig{LowThresholdPct: 20, CriticalThresholdPct: 5}); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	var events []hal.PowerEventType
	p.OnEvent(func(ev hal.PowerEvent) { events = append(events, ev.Type) })

	p.SetBattery(hal.BatteryInfo{Percentage: 15})
	p.SetBattery(hal.BatteryInfo{Percentage: 3})
	p.SetBattery(hal.BatteryInfo{Percentage: 50, Charging: true})

	want := []hal.PowerEventType{
		hal.PowerEventBatteryLow,
		hal.PowerEventBatteryCritical,
		hal.PowerEventChargingStart,
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}

	b, err := p.Battery()
	if err != nil || !b.Charging || b.Percentage != 50 {
		t.Fatalf("battery = %+v, %v", b, err)
	}
}

func TestGPIOWatchEdges(t *testing.T) {
	g := NewGPIO()
	pin := board.ExpGPIO1
	if err := g.Configure(pin, hal.PinInput); err != nil {
		t.Fatal(err)
	}
	rising, falling := 0, 0
	if err := g.Watch(pin, hal.EdgeRising, func() { rising++ }); err != nil {
		t.Fatal(err)
	}
	if err := g.Watch(pin, hal.EdgeFalling, func() { falling++ }); !errors.IsInvalidState(err) {
		t.Fatalf("second watcher = %v, want InvalidState", err)
	}
	g.Drive(pin, true)
	g.Drive(pin, true) // no edge
	g.Drive(pin, false)
	g.Drive(pin, true)
	if rising != 2 || falling != 0 {
		t.Fatalf("rising = %d, falling = %d", rising, falling)
	}
	if err := g.Unwatch(pin); err != nil {
		t.Fatal(err)
	}
	if err := g.Watch(pin, hal.EdgeFalling, func() { falling++ }); err != nil {
		t.Fatal(err)
	}
	g.Drive(pin, false)
	if falling != 1 {
		t.Fatalf("falling = %d", falling)
	}
}

func TestAudioLoopback(t *testing.T) {
	a := NewAudio()
	cfg := hal.AudioConfig{MicEnable: true, SpkEnable: true}
	if err := a.Init(cfg); err != nil {
		t.Fatal(err)
	}
	a.QueueMic([]int16{1, 2, 3, 4})
	buf := make([]int16, 8)
	n, err := a.ReadMic(buf)
	if err != nil || n != 4 {
		t.Fatalf("ReadMic = %d, %v", n, err)
	}
	if n, err := a.WriteSpeaker([]int16{9, 8}); n != 2 || err != nil {
		t.Fatalf("WriteSpeaker = %d, %v", n, err)
	}
	played := a.Played()
	if len(played) != 2 || played[0] != 9 {
		t.Fatalf("played = %v", played)
	}
}
