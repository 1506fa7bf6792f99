package sensors

import (
	"fmt"
	"math"
)

// BatteryConfig describes the battery sense wiring and chemistry.
type BatteryConfig struct {
	Channel int
	Divider float64 // battery volts per ADC volt
	EmptyMV uint16
	FullMV  uint16
}

// DefaultBatteryConfig suits two AA cells sensed without a divider.
func DefaultBatteryConfig() BatteryConfig {
	return BatteryConfig{Channel: 1, Divider: 1, EmptyMV: 2000, FullMV: 3000}
}

// Battery measures the supply voltage on an ADC channel.
type Battery struct {
	adc ADC
	cfg BatteryConfig
}

// NewBattery creates a Battery monitor.
func NewBattery(adc ADC, cfg BatteryConfig) *Battery {
	if cfg.Divider <= 0 {
		cfg.Divider = 1
	}
	return &Battery{adc: adc, cfg: cfg}
}

// MeasureVoltage returns the battery voltage in mV.
func (b *Battery) MeasureVoltage() (uint16, error) {
	v, err := b.adc.Volts(b.cfg.Channel)
	if err != nil {
		return 0, fmt.Errorf("battery: %w", err)
	}
	mv := math.Round(v * b.cfg.Divider * 1000)
	if mv > math.MaxUint16 {
		mv = math.MaxUint16
	}
	return uint16(mv), nil
}

// VoltageToPercent maps mV linearly between the empty and full voltages.
func (b *Battery) VoltageToPercent(mv uint16) uint8 {
	if mv <= b.cfg.EmptyMV || b.cfg.FullMV <= b.cfg.EmptyMV {
		return 0
	}
	if mv >= b.cfg.FullMV {
		return 100
	}
	return uint8(uint32(mv-b.cfg.EmptyMV) * 100 / uint32(b.cfg.FullMV-b.cfg.EmptyMV))
}
