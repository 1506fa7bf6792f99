package node

import (
	"errors"
	"math"

	"github.com/sweeney/gas-meter/internal/report"
)

type fakeTransport struct {
	Submitted []report.Report
	Requested []report.Param
	SubmitErr error
}

func (f *fakeTransport) Submit(r report.Report) error {
	f.Submitted = append(f.Submitted, r)
	return f.SubmitErr
}

func (f *fakeTransport) Request(p report.Param) error {
	f.Requested = append(f.Requested, p)
	return nil
}

func (f *fakeTransport) Reset() {
	f.Submitted = nil
	f.Requested = nil
}

// kinds returns the kinds submitted, in order.
func (f *fakeTransport) kinds() []report.Kind {
	out := make([]report.Kind, len(f.Submitted))
	for i, r := range f.Submitted {
		out[i] = r.Kind
	}
	return out
}

// find returns the last submitted report of kind k.
func (f *fakeTransport) find(k report.Kind) (report.Report, bool) {
	for i := len(f.Submitted) - 1; i >= 0; i-- {
		if f.Submitted[i].Kind == k {
			return f.Submitted[i], true
		}
	}
	return report.Report{}, false
}

type fakeActivity struct {
	Marks int
}

func (f *fakeActivity) MarkActive() { f.Marks++ }

type fakeLight struct {
	Percent uint8
	Err     error
	Calls   int
}

func (f *fakeLight) Measure() (uint8, error) {
	f.Calls++
	return f.Percent, f.Err
}

type fakeBattery struct {
	MV    uint16
	Err   error
	Calls int
}

func (f *fakeBattery) MeasureVoltage() (uint16, error) {
	f.Calls++
	return f.MV, f.Err
}

func (f *fakeBattery) VoltageToPercent(mv uint16) uint8 {
	if mv >= 3000 {
		return 100
	}
	return uint8(mv / 30)
}

type fakeClimate struct {
	Present     bool
	Temperature float64
	Humidity    float64
	TriggerErr  error
	ReadErr     error
	Triggers    int
	Reads       int
}

func (f *fakeClimate) Init() bool { return f.Present }

func (f *fakeClimate) Trigger() error {
	if f.TriggerErr != nil {
		return f.TriggerErr
	}
	f.Triggers++
	return nil
}

func (f *fakeClimate) ReadTemperature() (float64, error) {
	f.Reads++
	if f.ReadErr != nil {
		return math.NaN(), f.ReadErr
	}
	return f.Temperature, nil
}

func (f *fakeClimate) ReadHumidity() (float64, error) {
	if f.ReadErr != nil {
		return math.NaN(), f.ReadErr
	}
	return f.Humidity, nil
}

var errSensor = errors.New("sensor: bus error")
