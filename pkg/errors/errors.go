// Package errors provides structured error handling for the Tab5duino framework.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInvalidArgument indicates a bad pin, subsystem id, or nil required value.
	KindInvalidArgument
	// KindInvalidState indicates an operation called out of lifecycle order.
	KindInvalidState
	// KindResourceExhausted indicates an allocation or task-creation failure.
	KindResourceExhausted
	// KindTimeout indicates a lock or hardware wait exceeded its budget.
	KindTimeout
	// KindNotSupported indicates an unrecognized subsystem or operation.
	KindNotSupported
	// KindHardware indicates a HAL-reported hardware fault.
	KindHardware
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidState:
		return "invalid state"
	case KindResourceExhausted:
		return "resource exhausted"
	case KindTimeout:
		return "timeout"
	case KindNotSupported:
		return "not supported"
	case KindHardware:
		return "hardware"
	default:
		return "unknown"
	}
}

// FrameworkError represents a structured error in the Tab5duino framework.
type FrameworkError struct {
	// Op is the operation that failed (e.g., "gfx.Start").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Subsystem is the subsystem name, if applicable.
	Subsystem string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *FrameworkError) Error() string {
	if e.Subsystem != "" {
		return fmt.Sprintf("%s [%s] subsystem=%s: %v", e.Op, e.Kind, e.Subsystem, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Op, e.Kind)
}

func (e *FrameworkError) Unwrap() error {
	return e.Err
}

// New builds a FrameworkError for op with the given kind and message.
func New(op string, kind ErrorKind, msg string) *FrameworkError {
	return &FrameworkError{Op: op, Kind: kind, Err: fmt.Errorf("%s", msg)}
}

// Newf is New with a formatted message.
func Newf(op string, kind ErrorKind, format string, args ...any) *FrameworkError {
	return &FrameworkError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches op and kind to an underlying error.
func Wrap(op string, kind ErrorKind, err error) *FrameworkError {
	return &FrameworkError{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, walking the unwrap chain.
// Returns KindUnknown for nil and for errors without a kind.
func KindOf(err error) ErrorKind {
	for err != nil {
		if fe, ok := err.(*FrameworkError); ok {
			return fe.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// IsInvalidArgument reports whether err carries KindInvalidArgument.
func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

// IsInvalidState reports whether err carries KindInvalidState.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsResourceExhausted reports whether err carries KindResourceExhausted.
func IsResourceExhausted(err error) bool { return KindOf(err) == KindResourceExhausted }

// IsTimeout reports whether err carries KindTimeout.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsNotSupported reports whether err carries KindNotSupported.
func IsNotSupported(err error) bool { return KindOf(err) == KindNotSupported }

// IsHardware reports whether err carries KindHardware.
func IsHardware(err error) bool { return KindOf(err) == KindHardware }

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "framework.loopTask").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the Tab5duino framework.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *FrameworkError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
