package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestFrameworkErrorString(t *testing.T) {
	err := &FrameworkError{
		Op:   "framework.Start",
		Kind: KindInvalidState,
		Err:  fmt.Errorf("not initialized"),
	}
	got := err.Error()
	if got == "" {
		t.Error("expected non-empty error string")
	}
	if !contains(got, "invalid state") {
		t.Errorf("error string %q should contain kind name", got)
	}
}

func TestFrameworkErrorWithSubsystem(t *testing.T) {
	err := &FrameworkError{
		Op:        "framework.InitSubsystem",
		Kind:      KindHardware,
		Subsystem: "display",
		Err:       fmt.Errorf("panel not responding"),
	}
	got := err.Error()
	want := "subsystem=display"
	if !contains(got, want) {
		t.Errorf("error string %q should contain %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindInvalidArgument, "invalid argument"},
		{KindInvalidState, "invalid state"},
		{KindResourceExhausted, "resource exhausted"},
		{KindTimeout, "timeout"},
		{KindNotSupported, "not supported"},
		{KindHardware, "hardware"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	inner := New("gfx.Lock", KindTimeout, "lock wait exceeded")
	wrapped := fmt.Errorf("refresh failed: %w", inner)

	if got := KindOf(inner); got != KindTimeout {
		t.Errorf("KindOf(inner) = %v, want KindTimeout", got)
	}
	if got := KindOf(wrapped); got != KindTimeout {
		t.Errorf("KindOf(wrapped) = %v, want KindTimeout", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want KindUnknown", got)
	}
	if got := KindOf(fmt.Errorf("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want KindUnknown", got)
	}
}

func TestKindPredicates(t *testing.T) {
	if !IsTimeout(New("op", KindTimeout, "t")) {
		t.Error("IsTimeout should match KindTimeout")
	}
	if !IsInvalidState(New("op", KindInvalidState, "s")) {
		t.Error("IsInvalidState should match KindInvalidState")
	}
	if !IsResourceExhausted(New("op", KindResourceExhausted, "m")) {
		t.Error("IsResourceExhausted should match KindResourceExhausted")
	}
	if IsNotSupported(New("op", KindHardware, "h")) {
		t.Error("IsNotSupported should not match KindHardware")
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic: test panic"
	if got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestPanicErrorStringWithOp(t *testing.T) {
	err := &PanicError{
		Op:        "framework.loopTask",
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic in framework.loopTask: test panic"
	if got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var capturedErr *FrameworkError
	handler := &testHandler{
		onError: func(err *FrameworkError) {
			capturedErr = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report(&FrameworkError{
		Op:   "test.op",
		Kind: KindHardware,
		Err:  fmt.Errorf("bus fault"),
	})

	if capturedErr == nil {
		t.Fatal("expected error to be captured")
	}
	if capturedErr.Op != "test.op" {
		t.Errorf("Op = %q, want %q", capturedErr.Op, "test.op")
	}
	if capturedErr.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportPanic(t *testing.T) {
	var capturedPanic *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			capturedPanic = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	ReportPanic(&PanicError{
		Value:     "test panic value",
		Timestamp: time.Now(),
	})

	if capturedPanic == nil {
		t.Fatal("expected panic to be captured")
	}
	if capturedPanic.Value != "test panic value" {
		t.Errorf("Value = %v, want %q", capturedPanic.Value, "test panic value")
	}
}

func TestRecover(t *testing.T) {
	var capturedPanic *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			capturedPanic = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if capturedPanic == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if capturedPanic.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", capturedPanic.Value, "intentional test panic")
	}
	if capturedPanic.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", capturedPanic.Op, "test.recover")
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Error("expected non-empty stack trace")
	}
	// Stack should contain some runtime info (either test function or testing infrastructure)
	if !contains(stack, "testing") && !contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if DefaultHandler == nil {
		t.Error("SetHandler(nil) should set default LogHandler, not nil")
	}
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

type testHandler struct {
	onError func(*FrameworkError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *FrameworkError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsAt(s, substr, 0))
}

func containsAt(s, substr string, start int) bool {
	for i := start; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
