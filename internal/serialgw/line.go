// Package serialgw is the node's transport over a MySensors serial gateway
// link: one message per line, node;child;command;ack;type;payload.
package serialgw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/gas-meter/internal/report"
)

// MaxPayload is the longest payload a MySensors frame can carry.
const MaxPayload = 25

func formatLine(node, child uint8, cmd report.Command, typ uint8, payload string) string {
	return fmt.Sprintf("%d;%d;%d;0;%d;%s\n", node, child, cmd, typ, payload)
}

// FormatReport encodes a report sent by node.
func FormatReport(node uint8, r report.Report) string {
	child, cmd, typ := r.Kind.Address()
	return formatLine(node, child, cmd, typ, r.Payload())
}

// FormatRequest encodes a value request sent by node.
func FormatRequest(node uint8, p report.Param) string {
	return formatLine(node, p.Child, report.CmdReq, p.Type, "")
}

// ParseLine decodes one line (without or with its trailing newline).
func ParseLine(line string) (report.Message, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, ";", 6)
	if len(parts) != 6 {
		return report.Message{}, fmt.Errorf("serialgw: %q: want 6 fields, got %d", line, len(parts))
	}
	var f [5]uint8
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseUint(parts[i], 10, 8)
		if err != nil {
			return report.Message{}, fmt.Errorf("serialgw: %q field %d: %w", line, i, err)
		}
		f[i] = uint8(v)
	}
	if len(parts[5]) > MaxPayload {
		return report.Message{}, fmt.Errorf("serialgw: %q: payload longer than %d", line, MaxPayload)
	}
	return report.Message{
		Node:    f[0],
		Child:   f[1],
		Command: report.Command(f[2]),
		Ack:     f[3] != 0,
		Type:    f[4],
		Payload: parts[5],
	}, nil
}
