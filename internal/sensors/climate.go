package sensors

import (
	"errors"
	"math"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/bme280"
)

// ErrNotInitialized is returned when the climate sensor is used before a
// successful Init.
var ErrNotInitialized = errors.New("climate: sensor not initialized")

// Climate is a BME280 run in forced mode: Trigger starts one conversion
// and the sensor returns to sleep when it is done. Pressure is not used.
type Climate struct {
	dev   bme280.Device
	ready bool
}

// NewClimate creates a BME280 at addr (bme280.Address if 0) on bus.
func NewClimate(bus drivers.I2C, addr uint16) *Climate {
	dev := bme280.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	return &Climate{dev: dev}
}

// Init probes the chip id and loads the calibration. It returns false if
// no BME280 answers.
func (c *Climate) Init() bool {
	if !c.dev.Connected() {
		return false
	}
	c.dev.ConfigureWithSettings(bme280.Config{
		Mode:        bme280.ModeForced,
		Temperature: bme280.Sampling1X,
		Humidity:    bme280.Sampling1X,
		Pressure:    bme280.SamplingOff,
		IIR:         bme280.Coeff0,
		Period:      bme280.Period0_5ms,
	})
	c.ready = true
	return true
}

// Trigger starts a forced conversion and returns without waiting.
func (c *Climate) Trigger() error {
	if !c.ready {
		return ErrNotInitialized
	}
	c.dev.SetMode(bme280.ModeForced)
	// Reads must not start another conversion and block for it.
	c.dev.Config.Mode = bme280.ModeSleep
	return nil
}

// ReadTemperature returns the last conversion in degrees Celsius.
func (c *Climate) ReadTemperature() (float64, error) {
	if !c.ready {
		return math.NaN(), ErrNotInitialized
	}
	milli, err := c.dev.ReadTemperature()
	if err != nil {
		return math.NaN(), err
	}
	return float64(milli) / 1000, nil
}

// ReadHumidity returns the last conversion in percent relative humidity.
func (c *Climate) ReadHumidity() (float64, error) {
	if !c.ready {
		return math.NaN(), ErrNotInitialized
	}
	hundredths, err := c.dev.ReadHumidity()
	if err != nil {
		return math.NaN(), err
	}
	return float64(hundredths) / 100, nil
}
