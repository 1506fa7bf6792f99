package main

import (
	"errors"
	"log"

	"github.com/sweeney/gas-meter/internal/config"
	"github.com/sweeney/gas-meter/internal/gpio"
	"github.com/sweeney/gas-meter/internal/node"
	"github.com/sweeney/gas-meter/internal/sensors"
)

// outputs holds the optional output lines. A nil field means the pin is
// disabled or could not be claimed.
type outputs struct {
	mirrorPin  gpio.Writer
	awake      gpio.Writer
	lightPower gpio.Writer
}

func openOutputs(pins config.PinsConfig) *outputs {
	return &outputs{
		mirrorPin:  openOutput(pins.Mirror, "gas-meter-mirror", false),
		awake:      openOutput(pins.Awake, "gas-meter-awake", true),
		lightPower: openOutput(pins.LightPower, "gas-meter-light", false),
	}
}

// openOutput claims pin as an output. Failure is logged, not fatal: every
// output is diagnostic or optional.
func openOutput(pin int, name string, initial bool) gpio.Writer {
	if pin < 0 {
		return nil
	}
	w, err := gpio.NewRealWriter(pin, name, initial)
	if err != nil {
		log.Printf("gpio: %s on line %d unavailable: %v", name, pin, err)
		return nil
	}
	return w
}

// mirror returns the tick handler's raw-sample hook, or nil without a
// mirror pin.
func (o *outputs) mirror() func(closed bool) {
	if o.mirrorPin == nil {
		return nil
	}
	m := &mirrorHook{w: o.mirrorPin}
	return m.set
}

// mirrorHook copies the raw contact state to the mirror pin from the tick
// goroutine. Failures are logged once per run of errors.
type mirrorHook struct {
	w       gpio.Writer
	failing bool
}

func (m *mirrorHook) set(closed bool) {
	if err := m.w.Set(closed); err != nil {
		if !m.failing {
			log.Printf("gpio mirror error: %v", err)
			m.failing = true
		}
		return
	}
	if m.failing {
		log.Printf("gpio mirror recovered")
		m.failing = false
	}
}

func (o *outputs) Close() error {
	var errs []error
	for _, w := range []gpio.Writer{o.mirrorPin, o.awake, o.lightPower} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	return errors.Join(errs...)
}

// sampler reads the contact for the tick handler. A failing read counts as
// open; failures are logged once per run of errors.
type sampler struct {
	reader  gpio.Reader
	failing bool
}

func (s *sampler) sample() bool {
	closed, err := s.reader.Read()
	if err != nil {
		if !s.failing {
			log.Printf("gpio read error: %v", err)
			s.failing = true
		}
		return false
	}
	if s.failing {
		log.Printf("gpio read recovered")
		s.failing = false
	}
	return closed
}

// openSensors builds the optional sensors on the I2C bus. Anything that
// cannot be opened is left nil and the scheduler skips its reports.
func openSensors(cfg config.SensorsConfig, lightPower gpio.Writer) (node.Sensors, func()) {
	var sens node.Sensors
	if !cfg.Enabled {
		return sens, func() {}
	}

	bus, err := sensors.OpenBus()
	if err != nil {
		log.Printf("sensors: %v, running without sensors", err)
		return sens, func() {}
	}
	closeBus := func() {
		if err := bus.Close(); err != nil {
			log.Printf("sensors: close i2c bus: %v", err)
		}
	}

	if cfg.Light.Enabled || cfg.Battery.Enabled {
		adc := sensors.NewADS1115(bus, cfg.ADCAddress, sensors.GainOne)
		if cfg.Light.Enabled {
			sens.Light = sensors.NewLight(adc, cfg.Light.Channel, lightPower, cfg.Light.Supply)
		}
		if cfg.Battery.Enabled {
			sens.Battery = sensors.NewBattery(adc, sensors.BatteryConfig{
				Channel: cfg.Battery.Channel,
				Divider: cfg.Battery.Divider,
				EmptyMV: cfg.Battery.EmptyMV,
				FullMV:  cfg.Battery.FullMV,
			})
		}
	}
	if cfg.Climate.Enabled {
		sens.Climate = sensors.NewClimate(sensors.NewI2C(bus), uint16(cfg.Climate.Address))
	}
	return sens, closeBus
}
