// Package gpio drives the valve and recirculation pump outputs.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives the two relay outputs.
type Writer interface {
	// Apply sets the valve and pump outputs. Writes are idempotent.
	Apply(valveOpen, pumpOn bool) error

	// Close releases GPIO resources, leaving both outputs off.
	Close() error
}

// Default pin assignments (BCM numbering). A negative pin disables that
// output.
const (
	PinValve    = 17
	PinPump     = 27
	PinDisabled = -1
)

// level converts a logical state to a line value.
func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
