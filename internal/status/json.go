package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gas-meter/internal/report"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string            `json:"event,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	BootID         string            `json:"boot_id,omitempty"`
	Mode           string            `json:"mode"`
	BaselineValid  bool              `json:"baseline_valid"`
	Contact        string            `json:"contact"`
	Counts         CountsJSON        `json:"counts"`
	Last           map[string]string `json:"last_sent"`
	Stats          StatsJSON         `json:"stats"`
	ClimateEnabled bool              `json:"climate_enabled"`
	UptimeSeconds  int64             `json:"uptime_seconds"`
	StartTime      string            `json:"start_time"`
	Timestamp      string            `json:"timestamp"`
	Transport      TransportStatus   `json:"transport"`
	Network        *NetworkJSON      `json:"network,omitempty"`
	Config         ConfigJSON        `json:"config"`
}

// CountsJSON reports pulse totals.
type CountsJSON struct {
	Pending      uint32  `json:"pending"`
	Absolute     *uint32 `json:"absolute,omitempty"`
	Hourly       uint32  `json:"hourly"`
	LastRelative uint32  `json:"last_relative"`
	Ticks        uint64  `json:"ticks"`
}

// StatsJSON reports submission counters.
type StatsJSON struct {
	Sends      uint64 `json:"sends"`
	SendErrors uint64 `json:"send_errors"`
	Rebases    uint64 `json:"rebases"`
}

// TransportStatus reports transport state.
type TransportStatus struct {
	Kind      string `json:"kind"`
	Endpoint  string `json:"endpoint"`
	Connected bool   `json:"connected"`
	Sleeping  bool   `json:"sleeping"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of node config.
type ConfigJSON struct {
	NodeID         uint8   `json:"node_id"`
	LitersPerPulse float64 `json:"liters_per_pulse"`
	TickRate       int     `json:"tick_rate_hz"`
	DebounceTicks  int     `json:"debounce_ticks"`
	MinReportMs    int64   `json:"min_report_ms"`
	HourlyMs       int64   `json:"hourly_ms"`
	HeartbeatMs    int64   `json:"heartbeat_ms"`
	HTTPPort       string  `json:"http_port"`
	Quick          bool    `json:"quick,omitempty"`
}

// ContactString renders the debounced contact state.
func ContactString(closed bool) string {
	if closed {
		return "CLOSED"
	}
	return "OPEN"
}

// LastSent returns the most recent payload per report kind, keyed by kind name.
func LastSent(snap Snapshot) map[string]string {
	out := make(map[string]string, len(snap.Node.LastSent))
	for _, k := range report.Kinds() {
		if r, ok := snap.Node.LastSent[k]; ok {
			out[k.String()] = r.Payload()
		}
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	n := snap.Node
	inner := StatusInner{
		BootID:         snap.BootID,
		Mode:           n.Mode.String(),
		BaselineValid:  n.BaselineValid(),
		Contact:        ContactString(snap.ContactClosed),
		Last:           LastSent(snap),
		ClimateEnabled: n.ClimateEnabled,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Pending:      n.Pending,
			Hourly:       n.Hourly,
			LastRelative: n.LastRelative,
			Ticks:        snap.Ticks,
		},
		Stats: StatsJSON{
			Sends:      n.Sends,
			SendErrors: n.SendErrors,
			Rebases:    n.Rebases,
		},
		Transport: TransportStatus{
			Kind:      snap.Config.Transport,
			Endpoint:  snap.Config.Endpoint,
			Connected: snap.TransportConnected,
			Sleeping:  snap.TransportSleeping,
		},
		Config: ConfigJSON{
			NodeID:         snap.Config.NodeID,
			LitersPerPulse: snap.Config.LitersPerPulse,
			TickRate:       snap.Config.TickRate,
			DebounceTicks:  snap.Config.DebounceTicks,
			MinReportMs:    snap.Config.MinReportMs,
			HourlyMs:       snap.Config.HourlyMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			HTTPPort:       snap.Config.HTTPPort,
			Quick:          snap.Config.Quick,
		},
	}
	if n.BaselineValid() {
		abs := n.Absolute
		inner.Counts.Absolute = &abs
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for a system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
