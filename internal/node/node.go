// Package node holds the node state aggregate and the main-loop logic that
// acts on it: the report scheduler and the baseline reconciliation handler.
//
// Everything here runs in the main loop. The only value shared with the
// tick goroutine is the logic.PulseCounter.
package node

import (
	"time"

	"github.com/sweeney/gas-meter/internal/report"
)

// Mode is the report mode of the node.
type Mode int

const (
	// RelativeOnly is the initial mode: no baseline has been received and
	// only relative counts are reported.
	RelativeOnly Mode = iota
	// AbsoluteEstablished is entered once a baseline arrives and is never
	// left for the life of the process.
	AbsoluteEstablished
)

func (m Mode) String() string {
	switch m {
	case RelativeOnly:
		return "RELATIVE_ONLY"
	case AbsoluteEstablished:
		return "ABSOLUTE_ESTABLISHED"
	}
	return "UNKNOWN"
}

// Transport is what the scheduler needs from the link to the controller.
type Transport interface {
	Submit(r report.Report) error
	Request(p report.Param) error
}

// Activity is told whenever something was sent, so the transport is not
// powered down while a report is in flight.
type Activity interface {
	MarkActive()
}

// Clock supplies the wrapping millisecond counter.
type Clock interface {
	Millis() uint32
}

// Light measures ambient light, 0 (dark) to 100 (bright).
type Light interface {
	Measure() (uint8, error)
}

// Battery measures the supply voltage.
type Battery interface {
	MeasureVoltage() (uint16, error)
	VoltageToPercent(mv uint16) uint8
}

// Climate is a temperature/humidity sensor with a forced (one-shot)
// conversion.
type Climate interface {
	// Init probes the sensor. false means absent; the node then runs
	// without climate reports.
	Init() bool
	// Trigger starts a conversion and returns immediately.
	Trigger() error
	ReadTemperature() (float64, error)
	ReadHumidity() (float64, error)
}

// Sensors are the optional measurement capabilities. A nil field disables
// the matching reports.
type Sensors struct {
	Light   Light
	Battery Battery
	Climate Climate
}

// Config holds the scheduler intervals and the meter constant.
type Config struct {
	LitersPerPulse    float64
	MinReportInterval time.Duration
	HourlyInterval    time.Duration
	LightInterval     time.Duration
	BatteryInterval   time.Duration
	ClimateInterval   time.Duration
	ClimateSettle     time.Duration
}

// DefaultConfig returns the production intervals.
func DefaultConfig() Config {
	return Config{
		LitersPerPulse:    10,
		MinReportInterval: 5 * time.Minute,
		HourlyInterval:    time.Hour,
		LightInterval:     30 * time.Minute,
		BatteryInterval:   12 * time.Hour,
		ClimateInterval:   5 * time.Minute,
		ClimateSettle:     10 * time.Millisecond,
	}
}

// State is the node state aggregate owned by the main loop.
type State struct {
	Mode     Mode
	Absolute uint32 // meaningful only in AbsoluteEstablished
	Hourly   uint32 // pulses drained since the last hourly report

	// LastRelative is the relative count of the most recent count report.
	LastRelative uint32

	ClimatePending     bool
	ClimateTriggeredAt uint32
}

// BaselineValid reports whether a baseline has been received.
func (s State) BaselineValid() bool {
	return s.Mode == AbsoluteEstablished
}

// Snapshot is a copy of the scheduler state for observers.
type Snapshot struct {
	State
	Pending        uint32
	ClimateEnabled bool
	LastSent       map[report.Kind]report.Report
	Sends          uint64
	SendErrors     uint64
	Rebases        uint64
}
