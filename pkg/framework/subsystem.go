package framework

// Subsystem identifies one hardware-facing functional unit with an
// independent init/deinit lifecycle.
type Subsystem uint8

const (
	SubsystemDisplay Subsystem = iota
	SubsystemTouch
	SubsystemIMU
	SubsystemAudio
	SubsystemPower
	SubsystemUSB
	SubsystemWiFi
	SubsystemGraphics
	subsystemCount
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemDisplay:
		return "display"
	case SubsystemTouch:
		return "touch"
	case SubsystemIMU:
		return "imu"
	case SubsystemAudio:
		return "audio"
	case SubsystemPower:
		return "power"
	case SubsystemUSB:
		return "usb"
	case SubsystemWiFi:
		return "wifi"
	case SubsystemGraphics:
		return "graphics"
	}
	return "unknown"
}

// Valid reports whether s names a real subsystem.
func (s Subsystem) Valid() bool { return s < subsystemCount }

// State is a subsystem's lifecycle state. Transitions run
// UNINITIALIZED -> INITIALIZING -> READY|ERROR through InitSubsystem and
// back to UNINITIALIZED through DeinitSubsystem only.
type State uint8

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// capability is one registered subsystem's bring-up and tear-down pair.
// Subsystems without a capability (USB, WiFi) are recognized ids that
// report NotSupported when initialized.
type capability struct {
	bringUp  func() error
	tearDown func() error
}
