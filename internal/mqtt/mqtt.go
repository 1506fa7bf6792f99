// Package mqtt is the node's transport to a MySensors MQTT gateway/controller.
//
// Outbound values are published on <out>/<node>/<child>/<cmd>/<ack>/<type>
// with the value as a plain-text payload. The controller answers on
// <in>/<node>/<child>/<cmd>/<ack>/<type>, which the transport subscribes to
// and turns into report.Message values.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/gas-meter/internal/report"
)

// Default topic prefixes.
const (
	DefaultOutPrefix   = "my/2/stat"
	DefaultInPrefix    = "my/cmnd"
	DefaultSystemTopic = "energy/gas-meter/system"
)

// Transport is the full MQTT transport surface used by the daemon.
type Transport interface {
	Submit(r report.Report) error
	Request(p report.Param) error
	IsReady() bool
	Enable() error
	Disable() error
	Messages() <-chan report.Message

	// PublishSystem sends a lifecycle event on the system topic.
	PublishSystem(event SystemEvent) error
	IsConnected() bool
	Close() error
}

// Topics builds and parses MySensors topics for one node.
type Topics struct {
	Out  string
	In   string
	Node uint8
}

func (t Topics) topic(prefix string, child uint8, cmd report.Command, ack bool, typ uint8) string {
	a := 0
	if ack {
		a = 1
	}
	return fmt.Sprintf("%s/%d/%d/%d/%d/%d", prefix, t.Node, child, cmd, a, typ)
}

// Report returns the topic a report is published on.
func (t Topics) Report(r report.Report) string {
	child, cmd, typ := r.Kind.Address()
	return t.topic(t.Out, child, cmd, false, typ)
}

// Request returns the topic a value request is published on.
func (t Topics) Request(p report.Param) string {
	return t.topic(t.Out, p.Child, report.CmdReq, false, p.Type)
}

// Subscription returns the filter matching every message for this node.
func (t Topics) Subscription() string {
	return fmt.Sprintf("%s/%d/+/+/+/+", t.In, t.Node)
}

// Parse turns an inbound topic and payload into a Message.
func (t Topics) Parse(topic string, payload []byte) (report.Message, error) {
	rest, ok := strings.CutPrefix(topic, t.In+"/")
	if !ok {
		return report.Message{}, fmt.Errorf("mqtt: topic %q outside %q", topic, t.In)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 5 {
		return report.Message{}, fmt.Errorf("mqtt: topic %q: want 5 fields after prefix, got %d", topic, len(parts))
	}
	var f [5]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return report.Message{}, fmt.Errorf("mqtt: topic %q field %d: %w", topic, i, err)
		}
		f[i] = uint8(v)
	}
	return report.Message{
		Node:    f[0],
		Child:   f[1],
		Command: report.Command(f[2]),
		Ack:     f[3] != 0,
		Type:    f[4],
		Payload: string(payload),
	}, nil
}

// SystemEvent represents a system lifecycle event (STARTUP, SHUTDOWN,
// HEARTBEAT, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // shutdown signal or disconnect cause
	BootID     string
	RawPayload []byte // pre-formatted JSON; if set, FormatSystemPayload returns it as is
	Retained   bool
}

// SystemPayload is the payload for events without a status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	BootID    string `json:"boot_id,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			BootID:    event.BootID,
		},
	})
}
