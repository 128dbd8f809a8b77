// Package hal declares the hardware abstraction contracts the framework
// controller and graphics integration consume: display, touch, IMU, audio,
// power, and GPIO. Each contract follows the same shape: Init with a typed
// config, Deinit, Start, Stop, typed read/query operations, and callback
// registration. Implementations are external collaborators; package halsim
// provides the simulated board used on hosts and in tests.
package hal

// Lifecycle is the operation set every subsystem HAL shares. The framework
// controller drives subsystems exclusively through it.
type Lifecycle interface {
	// Deinit releases every resource the HAL holds. Best effort: the
	// controller treats deinit as always succeeding.
	Deinit() error
	// Start begins active operation (scanning, refresh, monitoring).
	Start() error
	// Stop halts active operation without releasing resources.
	Stop() error
	// Ready reports whether the HAL is initialized and operational.
	Ready() bool
}
