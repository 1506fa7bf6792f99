// Package sensors implements the node's measurement capabilities on a
// host I2C bus: an ADS1115 ADC for ambient light and battery voltage and a
// BME280 for temperature and humidity.
package sensors

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

// ErrNoBus is returned by OpenBus on platforms without a host I2C bus.
var ErrNoBus = errors.New("sensors: no i2c bus on this platform")

// Bus is a host I2C bus. *i2c.Bus from github.com/reef-pi/rpi satisfies it.
type Bus interface {
	ReadBytes(addr byte, num int) ([]byte, error)
	WriteBytes(addr byte, value []byte) error
	ReadFromReg(addr, reg byte, value []byte) error
	WriteToReg(addr, reg byte, value []byte) error
	Close() error
}

// I2C adapts a Bus to the tinygo driver Tx shape so drivers written for
// microcontrollers run against the host bus.
type I2C struct {
	bus Bus
}

// NewI2C wraps bus.
func NewI2C(bus Bus) I2C {
	return I2C{bus: bus}
}

var _ drivers.I2C = I2C{}

// Tx performs one transaction. A single-byte write followed by a read is a
// register read; a write with no read is a register write.
func (s I2C) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("sensors: i2c address 0x%X out of range", addr)
	}
	a := byte(addr)
	switch {
	case len(r) == 0 && len(w) == 0:
		return nil
	case len(r) == 0:
		return s.bus.WriteToReg(a, w[0], w[1:])
	case len(w) == 1:
		return s.bus.ReadFromReg(a, w[0], r)
	}

	if len(w) > 0 {
		if err := s.bus.WriteBytes(a, w); err != nil {
			return err
		}
	}
	data, err := s.bus.ReadBytes(a, len(r))
	if err != nil {
		return err
	}
	copy(r, data)
	return nil
}
