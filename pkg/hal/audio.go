package hal

import (
	"time"

	"github.com/go-tab5/tab5duino/pkg/board"
)

// AudioFormat describes a PCM stream.
type AudioFormat struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
	BufferSamples int
	BufferCount   int
}

// AudioEventType classifies audio pipeline events.
type AudioEventType uint8

const (
	AudioEventNone AudioEventType = iota
	AudioEventMicDataReady
	AudioEventVoiceDetected
	AudioEventVoiceEnd
	AudioEventClipping
	AudioEventUnderrun
	AudioEventOverrun
)

// AudioEvent carries one audio pipeline event.
type AudioEvent struct {
	Type AudioEventType
	Time time.Time
}

// AudioConfig configures the audio HAL (PDM microphone plus I2S speaker).
type AudioConfig struct {
	MicDataPin board.Pin
	MicClkPin  board.Pin
	SpkDataPin board.Pin
	SpkBClkPin board.Pin
	SpkWSPin   board.Pin

	MicFormat AudioFormat
	MicEnable bool
	MicGain   uint8

	SpkFormat AudioFormat
	SpkEnable bool
	SpkVolume uint8
}

// Audio is the audio HAL contract.
type Audio interface {
	Lifecycle

	Init(cfg AudioConfig) error

	// ReadMic fills buf with captured samples and returns the count read.
	ReadMic(buf []int16) (int, error)
	// WriteSpeaker queues samples for playback and returns the count queued.
	WriteSpeaker(buf []int16) (int, error)

	SetMicGain(gain uint8) error
	SetVolume(volume uint8) error

	OnEvent(fn func(ev AudioEvent))
}
