// Package report defines the values the node exchanges with its controller
// and their MySensors addressing (child sensor id, command, value type).
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Child sensor ids presented by the node.
const (
	ChildTemperature uint8 = 41
	ChildHumidity    uint8 = 51
	ChildLight       uint8 = 61
	ChildGas         uint8 = 81
	ChildVCC         uint8 = 99
	ChildNode        uint8 = 255
)

// Command is the MySensors message command field.
type Command uint8

const (
	CmdPresentation Command = 0
	CmdSet          Command = 1
	CmdReq          Command = 2
	CmdInternal     Command = 3
	CmdStream       Command = 4
)

// MySensors value types used by the node.
const (
	VTemp       uint8 = 0
	VHum        uint8 = 1
	VLightLevel uint8 = 23
	VVar1       uint8 = 24
	VVar2       uint8 = 25
	VFlow       uint8 = 34
	VVolume     uint8 = 35
	VVoltage    uint8 = 38

	IBatteryLevel uint8 = 0
)

// Kind identifies one of the node's report streams.
type Kind int

const (
	RelCount Kind = iota
	AbsCount
	Flow
	Volume
	BatteryVoltage
	BatteryLevel
	Light
	Temperature
	Humidity
)

var kindNames = map[Kind]string{
	RelCount:       "REL_COUNT",
	AbsCount:       "ABS_COUNT",
	Flow:           "FLOW",
	Volume:         "VOLUME",
	BatteryVoltage: "BATTERY_VOLTAGE",
	BatteryLevel:   "BATTERY_LEVEL",
	Light:          "LIGHT",
	Temperature:    "TEMPERATURE",
	Humidity:       "HUMIDITY",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Address returns the MySensors child id, command and type for k.
func (k Kind) Address() (child uint8, cmd Command, typ uint8) {
	switch k {
	case RelCount:
		return ChildGas, CmdSet, VVar2
	case AbsCount:
		return ChildGas, CmdSet, VVar1
	case Flow:
		return ChildGas, CmdSet, VFlow
	case Volume:
		return ChildGas, CmdSet, VVolume
	case BatteryVoltage:
		return ChildVCC, CmdSet, VVoltage
	case BatteryLevel:
		return ChildNode, CmdInternal, IBatteryLevel
	case Light:
		return ChildLight, CmdSet, VLightLevel
	case Temperature:
		return ChildTemperature, CmdSet, VTemp
	case Humidity:
		return ChildHumidity, CmdSet, VHum
	}
	return ChildNode, CmdInternal, 0
}

// Kinds lists every report kind in declaration order.
func Kinds() []Kind {
	return []Kind{RelCount, AbsCount, Flow, Volume, BatteryVoltage, BatteryLevel, Light, Temperature, Humidity}
}

// Report is one value submitted to the transport.
type Report struct {
	Kind     Kind
	Value    float64
	Decimals int
}

// Count creates an integer-valued report.
func Count(k Kind, v uint32) Report {
	return Report{Kind: k, Value: float64(v)}
}

// Float creates a report formatted with the given number of decimals.
func Float(k Kind, v float64, decimals int) Report {
	return Report{Kind: k, Value: v, Decimals: decimals}
}

// Payload returns the wire representation of the value.
func (r Report) Payload() string {
	return strconv.FormatFloat(r.Value, 'f', r.Decimals, 64)
}

func (r Report) String() string {
	return r.Kind.String() + "=" + r.Payload()
}

// Param names a value the node can ask the controller to send.
type Param struct {
	Child uint8
	Type  uint8
}

// Baseline is the controller-held absolute pulse count.
var Baseline = Param{Child: ChildGas, Type: VVar1}

// ErrBadPayload is returned when an inbound payload cannot be parsed.
var ErrBadPayload = errors.New("report: bad payload")

// Message is an inbound message from the controller.
type Message struct {
	Node    uint8
	Child   uint8
	Command Command
	Ack     bool
	Type    uint8
	Payload string
}

// Int32 parses the payload as a signed 32-bit integer.
func (m Message) Int32() (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(m.Payload), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPayload, m.Payload)
	}
	return int32(v), nil
}

// Is reports whether m carries the value named by p.
func (m Message) Is(p Param) bool {
	return m.Child == p.Child && m.Type == p.Type
}
