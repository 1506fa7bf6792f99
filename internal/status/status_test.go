package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/gas-meter/internal/node"
	"github.com/sweeney/gas-meter/internal/report"
)

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func relativeSnapshot() node.Snapshot {
	return node.Snapshot{
		State:   node.State{Mode: node.RelativeOnly, Hourly: 12, LastRelative: 7},
		Pending: 3,
		LastSent: map[report.Kind]report.Report{
			report.RelCount: report.Count(report.RelCount, 7),
			report.Flow:     report.Float(report.Flow, 0.84, 2),
		},
		Sends: 4,
	}
}

func absoluteSnapshot() node.Snapshot {
	s := relativeSnapshot()
	s.Mode = node.AbsoluteEstablished
	s.Absolute = 659200
	s.Rebases = 1
	return s
}

func TestNewTracker(t *testing.T) {
	cfg := Config{NodeID: 2, Transport: "mqtt", Endpoint: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(testStart, "boot-1", cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(testStart) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, testStart)
	}
	if snap.BootID != "boot-1" {
		t.Errorf("BootID: got %q, want boot-1", snap.BootID)
	}
	if snap.Config.HTTPPort != ":80" {
		t.Errorf("Config.HTTPPort: got %q, want %q", snap.Config.HTTPPort, ":80")
	}
	if snap.Node.BaselineValid() {
		t.Error("expected no baseline initially")
	}
	if snap.TransportConnected {
		t.Error("expected TransportConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	tr.Update(absoluteSnapshot(), true, 4200, true)

	snap := tr.Snapshot()
	if snap.Node.Mode != node.AbsoluteEstablished {
		t.Errorf("Mode: got %v, want ABSOLUTE_ESTABLISHED", snap.Node.Mode)
	}
	if snap.Node.Absolute != 659200 {
		t.Errorf("Absolute: got %d, want 659200", snap.Node.Absolute)
	}
	if !snap.ContactClosed {
		t.Error("expected ContactClosed=true")
	}
	if snap.Ticks != 4200 {
		t.Errorf("Ticks: got %d, want 4200", snap.Ticks)
	}
	if !snap.TransportSleeping {
		t.Error("expected TransportSleeping=true")
	}
}

func TestSetConnected(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	tr.SetConnected(true)
	if !tr.Snapshot().TransportConnected {
		t.Error("expected TransportConnected=true")
	}

	tr.SetConnected(false)
	if tr.Snapshot().TransportConnected {
		t.Error("expected TransportConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: testStart, Now: testStart.Add(15 * time.Minute)}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(testStart, "", Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	tr.Update(relativeSnapshot(), false, 10, false)

	snap1 := tr.Snapshot()

	tr.Update(absoluteSnapshot(), true, 20, true)

	if snap1.Node.Mode != node.RelativeOnly {
		t.Error("snapshot should be a copy; Mode was modified")
	}
	if snap1.Ticks != 10 {
		t.Error("snapshot should be a copy; Ticks was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Node:               absoluteSnapshot(),
		ContactClosed:      true,
		Ticks:              90000,
		TransportConnected: true,
		BootID:             "b00t",
		StartTime:          testStart,
		Now:                testStart.Add(15 * time.Minute),
		Config: Config{
			NodeID: 2, Transport: "mqtt", Endpoint: "tcp://localhost:1883",
			LitersPerPulse: 10, TickRate: 100, DebounceTicks: 4,
			MinReportMs: 300000, HourlyMs: 3600000, HeartbeatMs: 900000, HTTPPort: ":80",
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Mode != "ABSOLUTE_ESTABLISHED" {
		t.Errorf("Mode: got %q, want ABSOLUTE_ESTABLISHED", s.Mode)
	}
	if !s.BaselineValid {
		t.Error("expected BaselineValid=true")
	}
	if s.Contact != "CLOSED" {
		t.Errorf("Contact: got %q, want CLOSED", s.Contact)
	}
	if s.Counts.Absolute == nil || *s.Counts.Absolute != 659200 {
		t.Errorf("Counts.Absolute: got %v, want 659200", s.Counts.Absolute)
	}
	if s.Counts.Pending != 3 || s.Counts.Hourly != 12 || s.Counts.LastRelative != 7 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Counts.Ticks != 90000 {
		t.Errorf("Counts.Ticks: got %d, want 90000", s.Counts.Ticks)
	}
	if s.Last["REL_COUNT"] != "7" {
		t.Errorf("Last[REL_COUNT]: got %q, want 7", s.Last["REL_COUNT"])
	}
	if s.Last["FLOW"] != "0.84" {
		t.Errorf("Last[FLOW]: got %q, want 0.84", s.Last["FLOW"])
	}
	if s.Stats.Sends != 4 || s.Stats.Rebases != 1 {
		t.Errorf("Stats: got %+v", s.Stats)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.Transport.Connected || s.Transport.Kind != "mqtt" {
		t.Errorf("Transport: got %+v", s.Transport)
	}
	if s.BootID != "b00t" {
		t.Errorf("BootID: got %q, want b00t", s.BootID)
	}
	if s.Config.LitersPerPulse != 10 || s.Config.MinReportMs != 300000 {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", s.Event)
	}
	if s.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", s.Reason)
	}
}

func TestFormatJSONOmitsAbsoluteBeforeBaseline(t *testing.T) {
	snap := Snapshot{Node: relativeSnapshot(), StartTime: testStart, Now: testStart.Add(time.Second)}

	var raw map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]interface{})
	counts := status["counts"].(map[string]interface{})
	if _, exists := counts["absolute"]; exists {
		t.Error("absolute should be omitted without a baseline")
	}
	if status["mode"] != "RELATIVE_ONLY" {
		t.Errorf("mode: got %v, want RELATIVE_ONLY", status["mode"])
	}
	if status["contact"] != "OPEN" {
		t.Errorf("contact: got %v, want OPEN", status["contact"])
	}
}

func TestFormatJSONEmptyLastSent(t *testing.T) {
	snap := Snapshot{StartTime: testStart, Now: testStart}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Last == nil || len(parsed.Status.Last) != 0 {
		t.Errorf("Last: got %v, want empty object", parsed.Status.Last)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Node:      absoluteSnapshot(),
		StartTime: testStart,
		Now:       testStart.Add(15 * time.Minute),
		Config:    Config{Transport: "mqtt", Endpoint: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{StartTime: testStart, Now: testStart.Add(30 * time.Minute)}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: testStart, Now: testStart.Add(time.Second)}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: testStart,
		Now:       testStart.Add(time.Minute),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestContactString(t *testing.T) {
	if ContactString(true) != "CLOSED" || ContactString(false) != "OPEN" {
		t.Errorf("got %q/%q", ContactString(true), ContactString(false))
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(relativeSnapshot(), i%2 == 0, uint64(i), i%3 == 0)
			tr.SetConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
