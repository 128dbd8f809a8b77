package render

import (
	"testing"
	"time"

	"github.com/go-tab5/tab5duino/pkg/hal"
)

type flushRecord struct {
	area   hal.Rect
	pixels []hal.RGB565
}

func testSurface(w, h, lines int, record *[]flushRecord) Surface {
	bufs := [][]hal.RGB565{
		make([]hal.RGB565, w*lines),
		make([]hal.RGB565, w*lines),
	}
	return Surface{
		Width:       w,
		Height:      h,
		Buffers:     bufs,
		BufferLines: lines,
		Flush: func(area hal.Rect, pixels []hal.RGB565, done func()) {
			cp := make([]hal.RGB565, len(pixels))
			copy(cp, pixels)
			*record = append(*record, flushRecord{area: area, pixels: cp})
			done()
		},
	}
}

func TestRegisterSurfaceValidation(t *testing.T) {
	e := NewSoftEngine()
	if err := e.RegisterSurface(Surface{}); err == nil {
		t.Fatal("expected error before Init")
	}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	cases := []Surface{
		{},
		{Width: 10, Height: 8},
		{Width: 10, Height: 8, Flush: func(hal.Rect, []hal.RGB565, func()) {}},
		{
			Width: 10, Height: 8, BufferLines: 4,
			Buffers: [][]hal.RGB565{make([]hal.RGB565, 3)},
			Flush:   func(hal.Rect, []hal.RGB565, func()) {},
		},
	}
	for i, s := range cases {
		if err := e.RegisterSurface(s); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestProcessStepFlushesDirtyStrips(t *testing.T) {
	e := NewSoftEngine()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	var flushes []flushRecord
	if err := e.RegisterSurface(testSurface(10, 8, 4, &flushes)); err != nil {
		t.Fatal(err)
	}

	s, err := e.CreateScreen()
	if err != nil {
		t.Fatal(err)
	}
	s.SetBackground(hal.ColorBlue)
	if err := e.LoadScreen(s); err != nil {
		t.Fatal(err)
	}

	e.ProcessStep()
	if len(flushes) != 2 {
		t.Fatalf("got %d flushes, want 2 strips for an 8-line screen with 4-line buffers", len(flushes))
	}
	if flushes[0].area != (hal.Rect{X: 0, Y: 0, W: 10, H: 4}) {
		t.Errorf("first strip = %+v", flushes[0].area)
	}
	if flushes[1].area != (hal.Rect{X: 0, Y: 4, W: 10, H: 4}) {
		t.Errorf("second strip = %+v", flushes[1].area)
	}
	for _, p := range flushes[0].pixels {
		if p != hal.ColorBlue {
			t.Fatalf("background pixel = %04x, want %04x", p, hal.ColorBlue)
		}
	}

	// Nothing dirty now; no further flushes.
	flushes = flushes[:0]
	e.ProcessStep()
	if len(flushes) != 0 {
		t.Fatalf("clean screen flushed %d strips", len(flushes))
	}
}

func TestBoxCompositing(t *testing.T) {
	e := NewSoftEngine()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	var flushes []flushRecord
	if err := e.RegisterSurface(testSurface(10, 4, 4, &flushes)); err != nil {
		t.Fatal(err)
	}
	s, err := e.CreateScreen()
	if err != nil {
		t.Fatal(err)
	}
	s.AddBox(Box{Rect: hal.Rect{X: 2, Y: 1, W: 3, H: 2}, Color: hal.ColorRed})
	if err := e.LoadScreen(s); err != nil {
		t.Fatal(err)
	}
	e.ProcessStep()
	if len(flushes) != 1 {
		t.Fatalf("got %d flushes, want 1", len(flushes))
	}
	px := flushes[0].pixels
	if px[1*10+2] != hal.ColorRed || px[2*10+4] != hal.ColorRed {
		t.Error("box pixels not composited")
	}
	if px[0] != hal.ColorBlack {
		t.Errorf("background pixel = %04x, want black", px[0])
	}
}

func TestPartialInvalidation(t *testing.T) {
	e := NewSoftEngine()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	var flushes []flushRecord
	if err := e.RegisterSurface(testSurface(10, 8, 8, &flushes)); err != nil {
		t.Fatal(err)
	}
	s, _ := e.CreateScreen()
	if err := e.LoadScreen(s); err != nil {
		t.Fatal(err)
	}
	e.ProcessStep()
	flushes = flushes[:0]

	s.AddBox(Box{Rect: hal.Rect{X: 3, Y: 2, W: 2, H: 2}, Color: hal.ColorWhite})
	e.ProcessStep()
	if len(flushes) != 1 {
		t.Fatalf("got %d flushes, want 1", len(flushes))
	}
	if flushes[0].area != (hal.Rect{X: 3, Y: 2, W: 2, H: 2}) {
		t.Errorf("dirty region = %+v, want the box rect only", flushes[0].area)
	}
}

func TestPointerPolling(t *testing.T) {
	e := NewSoftEngine()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	var flushes []flushRecord
	if err := e.RegisterSurface(testSurface(10, 4, 4, &flushes)); err != nil {
		t.Fatal(err)
	}
	state := PointerState{X: 5, Y: 3, Pressed: true}
	if err := e.RegisterPointer(func() PointerState { return state }); err != nil {
		t.Fatal(err)
	}

	// The input timer has not elapsed yet.
	e.ProcessStep()
	if e.Pointer().Pressed {
		t.Fatal("pointer sampled before the poll period elapsed")
	}

	e.TickInc(inputPollPeriod)
	e.ProcessStep()
	if got := e.Pointer(); got != state {
		t.Fatalf("pointer = %+v, want %+v", got, state)
	}
}

func TestProcessStepRecommendsDelay(t *testing.T) {
	e := NewSoftEngine()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	if d := e.ProcessStep(); d <= 0 || d > time.Second {
		t.Fatalf("recommended delay %v out of range", d)
	}
}

func TestSetLogSinkDuringRendering(t *testing.T) {
	e := NewSoftEngine()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	// A flush that never signals completion forces the engine through its
	// logging path on every strip.
	surface := Surface{
		Width: 10, Height: 8, BufferLines: 4,
		Buffers: [][]hal.RGB565{
			make([]hal.RGB565, 40),
			make([]hal.RGB565, 40),
		},
		Flush: func(hal.Rect, []hal.RGB565, func()) {},
	}
	if err := e.RegisterSurface(surface); err != nil {
		t.Fatal(err)
	}
	s, err := e.CreateScreen()
	if err != nil {
		t.Fatal(err)
	}
	if err := e.LoadScreen(s); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s.Invalidate()
			e.ProcessStep()
		}
	}()
	// Swapping the sink while the engine task is mid-flush must be safe.
	for i := 0; i < 100; i++ {
		e.SetLogSink(func(string) {})
		e.SetLogSink(nil)
	}
	close(stop)
	<-done
}
