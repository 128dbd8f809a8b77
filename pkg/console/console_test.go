package console

import (
	"bytes"
	"testing"

	"github.com/go-tab5/tab5duino/pkg/errors"
	"github.com/go-tab5/tab5duino/pkg/log"
)

func TestOpenWithoutDevice(t *testing.T) {
	c, err := Open(DefaultConfig())
	if err != nil {
		t.Fatalf("Open with no device: %v", err)
	}
	defer c.Close()
	if n, err := c.Write([]byte("hello")); n != 5 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
}

func TestOpenFailureIsSurvivable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "/dev/tab5duino-nonexistent"
	c, err := Open(cfg)
	if err == nil {
		t.Fatal("expected open error for a missing device")
	}
	if !errors.IsHardware(err) {
		t.Fatalf("err kind = %v, want Hardware", errors.KindOf(err))
	}
	if c == nil {
		t.Fatal("console must still be usable without the device")
	}
	defer c.Close()

	// The log pipeline keeps working on stderr.
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(nil)
	log.New("console_test").Infof("still alive")
	if buf.Len() == 0 {
		t.Fatal("log output lost after console open failure")
	}

	if n, err := c.Write([]byte("x")); n != 1 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
}

func TestCloseRestoresStderr(t *testing.T) {
	c, err := Open(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing twice is harmless.
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
