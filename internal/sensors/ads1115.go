package sensors

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ADS1115 registers and config bits.
const (
	ADS1115Address = 0x48

	adsRegConversion = 0x00
	adsRegConfig     = 0x01

	adsOSSingle     uint16 = 0x8000
	adsModeSingle   uint16 = 0x0100
	adsDataRate860  uint16 = 0x00E0
	adsCompQueueOff uint16 = 0x0003
	adsMuxSingle0   uint16 = 0x4000 // AIN0 vs GND; AINn adds n<<12

	adsConvTimeout = 50 * time.Millisecond
	adsPollWait    = 200 * time.Microsecond
)

// Gain selects the ADS1115 full-scale range.
type Gain uint16

const (
	GainTwoThirds Gain = 0x0000 // +/- 6.144 V
	GainOne       Gain = 0x0200 // +/- 4.096 V
	GainTwo       Gain = 0x0400 // +/- 2.048 V
	GainFour      Gain = 0x0600 // +/- 1.024 V
)

// FullScale returns the full-scale voltage for g.
func (g Gain) FullScale() float64 {
	switch g {
	case GainTwoThirds:
		return 6.144
	case GainOne:
		return 4.096
	case GainTwo:
		return 2.048
	case GainFour:
		return 1.024
	}
	return 0
}

// ADS1115 is a 16-bit ADC used in single-shot mode: every read starts a
// conversion, polls for completion and returns the result, so the chip
// draws almost nothing between reads.
type ADS1115 struct {
	bus  Bus
	addr byte
	gain Gain

	now   func() time.Time
	sleep func(time.Duration)
}

// NewADS1115 creates an ADC at addr on bus.
func NewADS1115(bus Bus, addr byte, gain Gain) *ADS1115 {
	if gain.FullScale() == 0 {
		gain = GainOne
	}
	return &ADS1115{bus: bus, addr: addr, gain: gain, now: time.Now, sleep: time.Sleep}
}

// Read performs one single-ended conversion on channel ch (0-3).
func (a *ADS1115) Read(ch int) (int16, error) {
	if ch < 0 || ch > 3 {
		return 0, fmt.Errorf("ads1115: channel %d out of range", ch)
	}
	config := adsOSSingle | adsModeSingle | adsDataRate860 | adsCompQueueOff |
		(adsMuxSingle0 + uint16(ch)<<12) | uint16(a.gain)

	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, config)
	if err := a.bus.WriteToReg(a.addr, adsRegConfig, buf); err != nil {
		return 0, fmt.Errorf("ads1115: write config: %w", err)
	}

	deadline := a.now().Add(adsConvTimeout)
	for {
		if err := a.bus.ReadFromReg(a.addr, adsRegConfig, buf); err != nil {
			return 0, fmt.Errorf("ads1115: read config: %w", err)
		}
		if binary.BigEndian.Uint16(buf)&adsOSSingle != 0 {
			break
		}
		if a.now().After(deadline) {
			return 0, fmt.Errorf("ads1115: conversion timeout")
		}
		a.sleep(adsPollWait)
	}

	if err := a.bus.ReadFromReg(a.addr, adsRegConversion, buf); err != nil {
		return 0, fmt.Errorf("ads1115: read conversion: %w", err)
	}
	return int16(binary.BigEndian.Uint16(buf)), nil
}

// Volts converts one conversion on ch to volts, clamped at 0 for
// single-ended inputs.
func (a *ADS1115) Volts(ch int) (float64, error) {
	raw, err := a.Read(ch)
	if err != nil {
		return 0, err
	}
	if raw < 0 {
		raw = 0
	}
	return float64(raw) * a.gain.FullScale() / 32767, nil
}
