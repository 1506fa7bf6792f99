package sensors

import (
	"fmt"
	"log"
	"math"
)

// ADC reads a single-ended analog channel in volts.
type ADC interface {
	Volts(ch int) (float64, error)
}

// Switch drives a digital output, e.g. a gpio line.
type Switch interface {
	Set(on bool) error
}

// Light measures ambient light with a phototransistor between the ADC
// input and ground and a pull-up resistor fed from a switchable output.
// The pull-up is powered only while measuring.
type Light struct {
	adc    ADC
	ch     int
	power  Switch
	supply float64 // volts on the pull-up when powered
}

// NewLight creates a Light sensor. power may be nil if the pull-up is
// wired to a permanent supply.
func NewLight(adc ADC, ch int, power Switch, supply float64) *Light {
	if supply <= 0 {
		supply = 3.3
	}
	return &Light{adc: adc, ch: ch, power: power, supply: supply}
}

// Measure returns the light level, 0 (dark) to 100 (bright).
func (l *Light) Measure() (uint8, error) {
	if l.power != nil {
		if err := l.power.Set(true); err != nil {
			return 0, fmt.Errorf("light: power on: %w", err)
		}
		defer func() {
			if err := l.power.Set(false); err != nil {
				log.Printf("light: power off: %v", err)
			}
		}()
	}

	// First conversion after power-up is discarded.
	if _, err := l.adc.Volts(l.ch); err != nil {
		return 0, fmt.Errorf("light: %w", err)
	}
	v, err := l.adc.Volts(l.ch)
	if err != nil {
		return 0, fmt.Errorf("light: %w", err)
	}

	// Bright light pulls the input towards ground.
	pct := math.Round(v * 100 / l.supply)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return uint8(100 - pct), nil
}
