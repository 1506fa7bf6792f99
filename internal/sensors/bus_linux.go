//go:build linux

package sensors

import (
	"fmt"

	"github.com/reef-pi/rpi/i2c"
)

// OpenBus opens the host I2C bus.
func OpenBus() (Bus, error) {
	bus, err := i2c.New()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return bus, nil
}
