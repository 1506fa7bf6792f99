// Package status provides a thread-safe status tracker for the gas-meter node.
// The main loop writes it once per service cycle; HTTP handlers and system
// events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gas-meter/internal/node"
)

// NetworkInfo contains network state as reported by the host environment.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains node configuration for display.
type Config struct {
	NodeID         uint8
	Transport      string // "mqtt" or "serial"
	Endpoint       string // broker URL or serial device
	LitersPerPulse float64
	TickRate       int
	DebounceTicks  int
	MinReportMs    int64
	HourlyMs       int64
	HeartbeatMs    int64
	HTTPPort       string
	Quick          bool
}

// Snapshot is a point-in-time view of node state.
// It is a value type; LastSent is replaced, never mutated, on Update.
type Snapshot struct {
	Node               node.Snapshot
	ContactClosed      bool
	Ticks              uint64
	TransportConnected bool
	TransportSleeping  bool
	BootID             string
	StartTime          time.Time
	Now                time.Time
	Network            *NetworkInfo
	Config             Config
}

// Uptime returns the duration since the node started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable node state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot id and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			BootID:    bootID,
			Config:    cfg,
		},
	}
}

// Update records the scheduler state and contact readings.
// Called from the main loop after every service cycle.
func (t *Tracker) Update(n node.Snapshot, contactClosed bool, ticks uint64, sleeping bool) {
	t.mu.Lock()
	t.snap.Node = n
	t.snap.ContactClosed = contactClosed
	t.snap.Ticks = ticks
	t.snap.TransportSleeping = sleeping
	t.mu.Unlock()
}

// SetConnected sets the transport connection status.
func (t *Tracker) SetConnected(connected bool) {
	t.mu.Lock()
	t.snap.TransportConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the node state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
