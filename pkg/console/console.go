// Package console provides the USB-serial console the framework brings up
// during initialization. It mirrors the firmware console: log output is
// teed to the serial device when one is present, and its absence is never
// fatal.
package console

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/log"
)

// Config holds the console configuration.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyACM0. Empty keeps
	// the console on stderr only.
	Device string
	// Baud is ignored by USB CDC but kept for UART consoles.
	Baud int
	// ReadTimeout bounds blocking reads from the device.
	ReadTimeout time.Duration
}

// DefaultConfig returns the stock console configuration.
func DefaultConfig() Config {
	return Config{
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Console is an open framework console. Log output goes to stderr and,
// when the serial device opened, to the device as well.
type Console struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

// Open brings the console up and routes the framework log through it.
// A device open failure is reported in the returned error but the console
// is still usable on stderr; callers log the error and carry on.
func Open(cfg Config) (*Console, error) {
	c := &Console{}
	if cfg.Device == "" {
		log.SetOutput(os.Stderr)
		return c, nil
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		log.SetOutput(os.Stderr)
		return c, errors.Wrap("console.Open", errors.KindHardware, err)
	}
	c.port = port
	log.SetOutput(io.MultiWriter(os.Stderr, c))
	return c, nil
}

// Write sends b to the serial device. Device errors are swallowed; the
// console must never take the log pipeline down with it.
func (c *Console) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port != nil {
		c.port.Write(b)
	}
	return len(b), nil
}

// Read reads from the serial device.
func (c *Console) Read(b []byte) (int, error) {
	c.mu.Lock()
	port := c.port
	c.mu.Unlock()
	if port == nil {
		return 0, io.EOF
	}
	return port.Read(b)
}

// Close restores the log output to stderr and closes the device.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.SetOutput(os.Stderr)
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	return err
}
