// Package gpio provides the meter contact input and the node's digital
// outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader samples the meter contact.
type Reader interface {
	// Read returns true while the contact is closed. The contact pulls the
	// line low, so raw 0 = closed.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives one output line.
type Writer interface {
	Set(on bool) error
	Close() error
}

// Chip is the GPIO character device the node uses.
const Chip = "gpiochip0"

// Pin definitions (BCM numbering)
const (
	PinContact    = 17 // reed contact on the meter
	PinMirror     = 27 // raw contact state, diagnostic
	PinAwake      = 22 // high while the node is not idling
	PinLightPower = 23 // pull-up for the light sensor
)
