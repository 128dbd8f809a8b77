// Package log provides component-tagged leveled logging for the Tab5duino
// framework. Each framework component creates a Logger with its own tag, so
// output lines identify the subsystem that produced them.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Level controls which messages a Logger emits.
type Level int32

const (
	// LevelDebug emits everything.
	LevelDebug Level = iota
	// LevelInfo emits info, warnings and errors.
	LevelInfo
	// LevelWarn emits warnings and errors.
	LevelWarn
	// LevelError emits errors only.
	LevelError
	// LevelNone silences a logger entirely.
	LevelNone
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "D"
	case LevelInfo:
		return "I"
	case LevelWarn:
		return "W"
	case LevelError:
		return "E"
	default:
		return "?"
	}
}

var (
	outputMu sync.Mutex
	output   io.Writer = os.Stderr

	globalLevel atomic.Int32
)

// SetOutput redirects all logger output. Pass nil to restore stderr.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	if w == nil {
		output = os.Stderr
	} else {
		output = w
	}
}

// SetLevel sets the minimum level emitted by every Logger.
func SetLevel(l Level) {
	globalLevel.Store(int32(l))
}

// Logger writes tagged log lines for one framework component.
type Logger struct {
	tag string
}

// New returns a Logger that prefixes every line with the given component tag.
func New(tag string) *Logger {
	return &Logger{tag: tag}
}

// Tag returns the component tag.
func (l *Logger) Tag() string { return l.tag }

func (l *Logger) emit(level Level, format string, args ...any) {
	if level < Level(globalLevel.Load()) {
		return
	}
	outputMu.Lock()
	defer outputMu.Unlock()
	fmt.Fprintf(output, "%s [%s] %s\n", level, l.tag, fmt.Sprintf(format, args...))
}

// Debugf logs a debug message.
func (l *Logger) Debugf(format string, args ...any) { l.emit(LevelDebug, format, args...) }

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) { l.emit(LevelInfo, format, args...) }

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...any) { l.emit(LevelWarn, format, args...) }

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...any) { l.emit(LevelError, format, args...) }

func init() {
	globalLevel.Store(int32(LevelInfo))
}
