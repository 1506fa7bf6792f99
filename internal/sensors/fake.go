package sensors

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// FakeBus is an in-memory I2C bus for tests. Each device is a map from
// register to bytes; a read returns what was last stored at that register.
type FakeBus struct {
	mu      sync.Mutex
	devices map[byte]map[byte][]byte

	// Writes records every register write as addr, reg, data.
	Writes []FakeWrite

	// ReadError, if set, is returned by every read.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// FakeWrite is one recorded register write.
type FakeWrite struct {
	Addr byte
	Reg  byte
	Data []byte
}

// NewFakeBus creates an empty bus.
func NewFakeBus() *FakeBus {
	return &FakeBus{devices: make(map[byte]map[byte][]byte)}
}

// Set stores data at a device register, adding the device if needed.
func (f *FakeBus) Set(addr, reg byte, data ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dev, ok := f.devices[addr]
	if !ok {
		dev = make(map[byte][]byte)
		f.devices[addr] = dev
	}
	dev[reg] = append([]byte(nil), data...)
}

func (f *FakeBus) device(addr byte) (map[byte][]byte, error) {
	dev, ok := f.devices[addr]
	if !ok {
		return nil, fmt.Errorf("fake i2c: no device at 0x%02X", addr)
	}
	return dev, nil
}

// ReadFromReg implements Bus.
func (f *FakeBus) ReadFromReg(addr, reg byte, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return f.ReadError
	}
	dev, err := f.device(addr)
	if err != nil {
		return err
	}
	for i := range value {
		value[i] = 0
	}
	copy(value, dev[reg])
	return nil
}

// WriteToReg implements Bus.
func (f *FakeBus) WriteToReg(addr, reg byte, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dev, err := f.device(addr)
	if err != nil {
		return err
	}
	data := append([]byte(nil), value...)
	f.Writes = append(f.Writes, FakeWrite{Addr: addr, Reg: reg, Data: data})
	dev[reg] = data
	return nil
}

// ReadBytes implements Bus by reading register 0.
func (f *FakeBus) ReadBytes(addr byte, num int) ([]byte, error) {
	buf := make([]byte, num)
	return buf, f.ReadFromReg(addr, 0, buf)
}

// WriteBytes implements Bus; the first byte is the register.
func (f *FakeBus) WriteBytes(addr byte, value []byte) error {
	if len(value) == 0 {
		return errors.New("fake i2c: empty write")
	}
	return f.WriteToReg(addr, value[0], value[1:])
}

// Close implements Bus.
func (f *FakeBus) Close() error {
	f.Closed = true
	return nil
}

// FakeADC returns fixed voltages per channel.
type FakeADC struct {
	Channels map[int]float64
	Err      error
	Reads    int
}

// Volts implements ADC.
func (f *FakeADC) Volts(ch int) (float64, error) {
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Channels[ch], nil
}

// FakeSwitch records output changes.
type FakeSwitch struct {
	States []bool
	Err    error
}

// Set implements Switch.
func (f *FakeSwitch) Set(on bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.States = append(f.States, on)
	return nil
}

// FakeClimate is a climate sensor with fixed readings.
type FakeClimate struct {
	Present     bool
	Temperature float64
	Humidity    float64
	Err         error
	Triggers    int
}

// Init implements the climate capability.
func (f *FakeClimate) Init() bool { return f.Present }

// Trigger counts conversions.
func (f *FakeClimate) Trigger() error {
	f.Triggers++
	return f.Err
}

// ReadTemperature returns Temperature.
func (f *FakeClimate) ReadTemperature() (float64, error) {
	if f.Err != nil {
		return math.NaN(), f.Err
	}
	return f.Temperature, nil
}

// ReadHumidity returns Humidity.
func (f *FakeClimate) ReadHumidity() (float64, error) {
	if f.Err != nil {
		return math.NaN(), f.Err
	}
	return f.Humidity, nil
}
