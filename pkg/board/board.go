// Package board holds the hardware definition for the M5Stack Tab5
// (ESP32-P4): pin assignments, peripheral addressing, and display, touch,
// and power specifications. Everything here is configuration data; the HAL
// packages consume it when building their default configs.
package board

// Board identification.
const (
	Name    = "M5Stack Tab5"
	Variant = "m5tab5"
)

// Pin is a GPIO pin number on the ESP32-P4.
type Pin uint8

// Pin counts and capability limits.
const (
	NumDigitalPins = 50
	NumAnalogPins  = 6
)

// Valid reports whether p addresses a pin present on the board.
func (p Pin) Valid() bool { return p < NumDigitalPins }

// Built-in LED and buttons.
const (
	LEDBuiltin Pin = 2

	ButtonA Pin = 0 // boot button
	ButtonB Pin = 46
	ButtonC Pin = 45
)

// Display pins (MIPI-DSI panel).
const (
	TFTCS        Pin = 10
	TFTDC        Pin = 11
	TFTRst       Pin = 12
	TFTBacklight Pin = 13
)

// Touch controller pins (GT911).
const (
	TouchSDA Pin = 6
	TouchSCL Pin = 7
	TouchInt Pin = 8
	TouchRst Pin = 9
)

// IMU pins (BMI270).
const (
	IMUSDA  Pin = 4
	IMUSCL  Pin = 5
	IMUInt1 Pin = 14
	IMUInt2 Pin = 15
)

// Audio pins.
const (
	MicData Pin = 16 // PDM microphone data
	MicClk  Pin = 17 // PDM microphone clock
	SpkData Pin = 18 // speaker I2S data
	SpkBClk Pin = 19 // speaker bit clock
	SpkWS   Pin = 20 // speaker word select
)

// Power management pins.
const (
	BatADC   Pin = 1  // battery voltage ADC
	ChgStat  Pin = 21 // charging status
	PwrEn    Pin = 22 // power enable
	SolarADC Pin = 2  // solar panel voltage
	SolarEn  Pin = 23 // solar panel enable
)

// USB OTG pins.
const (
	USBDM Pin = 26
	USBDP Pin = 27
)

// Expansion connector pins.
const (
	ExpSDA   Pin = 35
	ExpSCL   Pin = 36
	ExpTX    Pin = 37
	ExpRX    Pin = 38
	ExpGPIO1 Pin = 39
	ExpGPIO2 Pin = 40
	ExpGPIO3 Pin = 41
	ExpGPIO4 Pin = 42
)

// SPI pins.
const (
	SS   Pin = TFTCS
	MOSI Pin = 47
	MISO Pin = 48
	SCK  Pin = 49
)

// Primary I2C pins (shared with the IMU bus).
const (
	SDA Pin = IMUSDA
	SCL Pin = IMUSCL
)

// USB serial UART pins.
const (
	RX Pin = 24
	TX Pin = 25
)

// Analog inputs.
const (
	A0 Pin = BatADC
	A1 Pin = SolarADC
	A2 Pin = 28
	A3 Pin = 29
	A4 Pin = 30
	A5 Pin = 31
)

// Display specifications.
const (
	DisplayWidth        = 1280
	DisplayHeight       = 720
	DisplayBitsPerPixel = 16 // RGB565
	DisplayRefreshHz    = 60
	DisplayPixelClockHz = 74_000_000 // 1280x720@60Hz
)

// Touch specifications (GT911).
const (
	TouchMaxPoints   = 10
	TouchI2CAddr     = 0x5D
	TouchI2CFreqHz   = 400_000
	TouchPressureMax = 255
)

// IMU specifications (BMI270).
const (
	IMUI2CAddr = 0x68
)

// Audio specifications.
const (
	AudioSampleRate = 44100
	AudioChannels   = 2
)

// Memory specifications.
const (
	PSRAMSize = 32 * 1024 * 1024 // 32MB external RAM
	FlashSize = 16 * 1024 * 1024
)

// Power specifications.
const (
	BatteryCapacityMAh = 5000
	SolarMaxPowerMW    = 2000
)
