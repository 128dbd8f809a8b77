package hal

import "time"

// PowerMode selects the board's power/performance point.
type PowerMode uint8

const (
	PowerModePerformance PowerMode = iota
	PowerModeBalanced
	PowerModeSave
	PowerModeDeepSleep
)

// BatteryInfo is a snapshot of battery state.
type BatteryInfo struct {
	Voltage     float64 // volts
	Current     float64 // milliamps, positive while charging
	Percentage  uint8
	Temperature float64 // celsius
	Charging    bool
	Full        bool
	Low         bool
	Critical    bool
}

// SolarInfo is a snapshot of the solar front-end.
type SolarInfo struct {
	Voltage float64 // volts
	Current float64 // milliamps
	Power   float64 // milliwatts
	Active  bool
}

// PowerEventType classifies power events.
type PowerEventType uint8

const (
	PowerEventNone PowerEventType = iota
	PowerEventBatteryLow
	PowerEventBatteryCritical
	PowerEventBatteryFull
	PowerEventChargingStart
	PowerEventChargingStop
	PowerEventSolarActive
	PowerEventSolarInactive
	PowerEventModeChange
)

// PowerEvent carries one power event.
type PowerEvent struct {
	Type PowerEventType
	Time time.Time
}

// PowerConfig configures the power HAL.
type PowerConfig struct {
	BatteryCapacityMAh float64
	LowThresholdPct    float64
	CriticalThresholdPct float64
	EnableSolar        bool
	DefaultMode        PowerMode
	MonitorInterval    time.Duration
}

// Power is the power management HAL contract. Start begins periodic
// monitoring; Stop halts it.
type Power interface {
	Lifecycle

	Init(cfg PowerConfig) error

	SetMode(mode PowerMode) error
	Mode() PowerMode

	Battery() (BatteryInfo, error)
	Solar() (SolarInfo, error)

	OnEvent(fn func(ev PowerEvent))
}
