package arduino

import (
	"testing"
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/hal/halsim"
)

func bindSim(t *testing.T) *halsim.GPIO {
	t.Helper()
	g := halsim.NewGPIO()
	Bind(g, time.Now())
	t.Cleanup(func() { Bind(nil, time.Time{}) })
	return g
}

func TestMillisMonotonic(t *testing.T) {
	bindSim(t)
	a := Millis()
	time.Sleep(5 * time.Millisecond)
	b := Millis()
	if b < a {
		t.Fatalf("Millis went backwards: %d then %d", a, b)
	}
	if b-a < 4 {
		t.Fatalf("Millis advanced only %dms across a 5ms sleep", b-a)
	}
	u1 := Micros()
	u2 := Micros()
	if u2 < u1 {
		t.Fatalf("Micros went backwards: %d then %d", u1, u2)
	}
}

func TestDigitalPinRoundTrip(t *testing.T) {
	g := bindSim(t)
	if err := PinMode(board.LEDBuiltin, Output); err != nil {
		t.Fatal(err)
	}
	if err := DigitalWrite(board.LEDBuiltin, High); err != nil {
		t.Fatal(err)
	}
	v, err := DigitalRead(board.LEDBuiltin)
	if err != nil || v != High {
		t.Fatalf("read = %v, %v", v, err)
	}

	// Input levels come from outside.
	if err := PinMode(board.ButtonA, InputPullup); err != nil {
		t.Fatal(err)
	}
	v, _ = DigitalRead(board.ButtonA)
	if v != High {
		t.Fatal("pullup input not high at rest")
	}
	g.Drive(board.ButtonA, Low)
	v, _ = DigitalRead(board.ButtonA)
	if v != Low {
		t.Fatal("driven level not observed")
	}
}

func TestUnboundBackend(t *testing.T) {
	Bind(nil, time.Time{})
	if err := PinMode(board.LEDBuiltin, Output); !errors.IsInvalidState(err) {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestAttachInterrupt(t *testing.T) {
	g := bindSim(t)
	if err := PinMode(board.ButtonA, Input); err != nil {
		t.Fatal(err)
	}
	fired := 0
	if err := AttachInterrupt(board.ButtonA, Falling, func() { fired++ }); err != nil {
		t.Fatal(err)
	}
	g.Drive(board.ButtonA, High)
	g.Drive(board.ButtonA, Low) // falling
	g.Drive(board.ButtonA, High)
	g.Drive(board.ButtonA, Low) // falling
	if fired != 2 {
		t.Fatalf("handler fired %d times, want 2", fired)
	}
	if err := DetachInterrupt(board.ButtonA); err != nil {
		t.Fatal(err)
	}
	g.Drive(board.ButtonA, High)
	g.Drive(board.ButtonA, Low)
	if fired != 2 {
		t.Fatal("handler fired after detach")
	}
}

func TestPulseIn(t *testing.T) {
	g := bindSim(t)
	pin := board.ExpGPIO1
	if err := PinMode(pin, Input); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		g.Drive(pin, High)
		time.Sleep(20 * time.Millisecond)
		g.Drive(pin, Low)
	}()

	d, err := PulseIn(pin, High, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if d < 10*time.Millisecond || d > 100*time.Millisecond {
		t.Fatalf("pulse width = %v, want roughly 20ms", d)
	}
}

func TestPulseInTimeout(t *testing.T) {
	bindSim(t)
	pin := board.ExpGPIO2
	if err := PinMode(pin, Input); err != nil {
		t.Fatal(err)
	}
	_, err := PulseIn(pin, High, 10*time.Millisecond)
	if !errors.IsTimeout(err) {
		t.Fatalf("err = %v, want Timeout", err)
	}
}

func TestShiftOut(t *testing.T) {
	g := bindSim(t)
	data, clock := board.ExpGPIO1, board.ExpGPIO2
	if err := PinMode(data, Output); err != nil {
		t.Fatal(err)
	}
	if err := PinMode(clock, Output); err != nil {
		t.Fatal(err)
	}

	var bits []bool
	if err := g.Watch(clock, Rising, func() {
		v, _ := g.Get(data)
		bits = append(bits, v)
	}); err != nil {
		t.Fatal(err)
	}

	if err := ShiftOut(data, clock, MSBFirst, 0b1011_0001); err != nil {
		t.Fatal(err)
	}
	want := []bool{true, false, true, true, false, false, false, true}
	if len(bits) != 8 {
		t.Fatalf("clocked %d bits", len(bits))
	}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("bit %d = %v, want %v", i, bits[i], want[i])
		}
	}
}

func TestShiftIn(t *testing.T) {
	g := bindSim(t)
	data, clock := board.ExpGPIO3, board.ExpGPIO4
	if err := PinMode(data, Input); err != nil {
		t.Fatal(err)
	}
	if err := PinMode(clock, Output); err != nil {
		t.Fatal(err)
	}

	// Feed one bit per rising clock edge, LSB first.
	pattern := []bool{false, true, false, false, true, true, false, true} // 0b1011_0010
	i := 0
	if err := g.Watch(clock, Rising, func() {
		g.Drive(data, pattern[i])
		i++
	}); err != nil {
		t.Fatal(err)
	}

	v, err := ShiftIn(data, clock, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0b1011_0010 {
		t.Fatalf("shifted in %08b, want 10110010", v)
	}
}

func TestMap(t *testing.T) {
	cases := []struct {
		x, inMin, inMax, outMin, outMax, want int64
	}{
		{0, 0, 1023, 0, 255, 0},
		{1023, 0, 1023, 0, 255, 255},
		{512, 0, 1023, 0, 255, 127}, // truncating division
		{5, 0, 10, 10, 0, 5},        // inverted output range
		{-5, -10, 0, 0, 100, 50},    // negative input range
	}
	for _, c := range cases {
		if got := Map(c.x, c.inMin, c.inMax, c.outMin, c.outMax); got != c.want {
			t.Errorf("Map(%d, %d, %d, %d, %d) = %d, want %d",
				c.x, c.inMin, c.inMax, c.outMin, c.outMax, got, c.want)
		}
	}
	if got := MapF(0.5, 0, 1, 0, 10); got != 5 {
		t.Errorf("MapF = %v, want 5", got)
	}
}

func TestRandomSeeded(t *testing.T) {
	RandomSeed(42)
	a := []int64{Random(100), Random(100), Random(100)}
	RandomSeed(42)
	b := []int64{Random(100), Random(100), Random(100)}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same seed produced different sequences")
		}
		if a[i] < 0 || a[i] >= 100 {
			t.Fatalf("Random(100) = %d out of range", a[i])
		}
	}
	if Random(0) != 0 {
		t.Fatal("Random(0) != 0")
	}
	for i := 0; i < 50; i++ {
		if v := RandomRange(10, 20); v < 10 || v >= 20 {
			t.Fatalf("RandomRange(10, 20) = %d", v)
		}
	}
}
