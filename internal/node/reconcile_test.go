package node

import (
	"testing"

	"github.com/sweeney/gas-meter/internal/report"
)

func TestBaselineLastWriteWins(t *testing.T) {
	h := newHarness(t, 0, Sensors{})

	h.baseline("500")
	h.pulses(4)
	h.baseline("200")

	st := h.s.State()
	if st.Absolute != 200 {
		t.Errorf("Absolute: got %d, want 200", st.Absolute)
	}
	got, _ := h.transport.find(report.AbsCount)
	if got.Payload() != "204" {
		t.Errorf("AbsCount: got %s, want 204", got.Payload())
	}
	if h.s.Snapshot().Rebases != 2 {
		t.Errorf("Rebases: got %d, want 2", h.s.Snapshot().Rebases)
	}
}

func TestModeTransition(t *testing.T) {
	h := newHarness(t, 0, Sensors{})
	if h.s.State().Mode != RelativeOnly {
		t.Fatalf("initial mode: got %v", h.s.State().Mode)
	}
	if h.s.State().BaselineValid() {
		t.Fatal("baseline valid at startup")
	}

	h.baseline("1")
	if h.s.State().Mode != AbsoluteEstablished {
		t.Fatalf("mode after baseline: got %v", h.s.State().Mode)
	}

	// Nothing moves it back
	h.baseline("bogus")
	h.baseline("0")
	if h.s.State().Mode != AbsoluteEstablished {
		t.Errorf("mode regressed to %v", h.s.State().Mode)
	}
}

func TestHandleMessageIgnores(t *testing.T) {
	tests := []struct {
		name string
		msg  report.Message
	}{
		{"ack", report.Message{Child: report.ChildGas, Command: report.CmdSet, Ack: true, Type: report.VVar1, Payload: "10"}},
		{"other type", report.Message{Child: report.ChildGas, Command: report.CmdSet, Type: report.VVar2, Payload: "10"}},
		{"other child", report.Message{Child: report.ChildLight, Command: report.CmdSet, Type: report.VVar1, Payload: "10"}},
		{"internal", report.Message{Child: report.ChildGas, Command: report.CmdInternal, Type: report.VVar1, Payload: "10"}},
		{"bad payload", report.Message{Child: report.ChildGas, Command: report.CmdSet, Type: report.VVar1, Payload: "ten"}},
		{"out of range", report.Message{Child: report.ChildGas, Command: report.CmdSet, Type: report.VVar1, Payload: "4294967295"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0, Sensors{})
			if h.s.HandleMessage(tt.msg) {
				t.Error("message applied")
			}
			if h.s.State().Mode != RelativeOnly {
				t.Error("mode changed")
			}
			if len(h.transport.Submitted) != 0 {
				t.Errorf("unexpected reports: %v", h.transport.Submitted)
			}
		})
	}
}

func TestBaselineViaRequestEcho(t *testing.T) {
	h := newHarness(t, 0, Sensors{})
	ok := h.s.HandleMessage(report.Message{Child: report.ChildGas, Command: report.CmdReq, Type: report.VVar1, Payload: "77"})
	if !ok || h.s.State().Absolute != 77 {
		t.Errorf("REQ-echoed baseline not applied: ok=%v abs=%d", ok, h.s.State().Absolute)
	}
}

func TestNegativeBaselineWraps(t *testing.T) {
	h := newHarness(t, 0, Sensors{})
	h.baseline("-1")
	h.pulses(2)

	h.clock.SetMillis(5 * minute)
	h.s.Service()

	// -1 as uint32 plus two pulses wraps to 1
	if got := h.s.State().Absolute; got != 1 {
		t.Errorf("Absolute: got %d, want 1", got)
	}
}
