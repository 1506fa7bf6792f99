package web

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sweeney/gas-meter/internal/status"
)

// writeMetrics writes the node counters in the Prometheus text format, one
// gauge or counter per line. Absolute values are left out until a baseline
// has been received.
func writeMetrics(w io.Writer, snap status.Snapshot) {
	n := snap.Node
	metric := func(name, kind, help string, v interface{}) {
		fmt.Fprintf(w, "# HELP gas_meter_%s %s\n# TYPE gas_meter_%s %s\ngas_meter_%s %v\n", name, help, name, kind, name, v)
	}

	metric("pending_pulses", "gauge", "Pulses counted but not yet reported.", n.Pending)
	metric("hourly_pulses", "gauge", "Pulses reported since the last hourly flow report.", n.Hourly)
	metric("last_relative_pulses", "gauge", "Relative count of the most recent count report.", n.LastRelative)
	metric("baseline_valid", "gauge", "1 once the controller has supplied a baseline.", boolMetric(n.BaselineValid()))
	if n.BaselineValid() {
		metric("absolute_pulses", "gauge", "Absolute pulse count.", n.Absolute)
		metric("volume_liters", "gauge", "Total metered volume.", strconv.FormatFloat(float64(n.Absolute)*snap.Config.LitersPerPulse, 'f', -1, 64))
	}
	metric("reports_total", "counter", "Reports submitted to the transport.", n.Sends)
	metric("report_errors_total", "counter", "Reports the transport rejected.", n.SendErrors)
	metric("rebases_total", "counter", "Baselines applied.", n.Rebases)
	metric("ticks_total", "counter", "Contact samples taken.", snap.Ticks)
	metric("contact_closed", "gauge", "Debounced contact state.", boolMetric(snap.ContactClosed))
	metric("transport_connected", "gauge", "Transport link state.", boolMetric(snap.TransportConnected))
	metric("transport_sleeping", "gauge", "Transport powered down between reports.", boolMetric(snap.TransportSleeping))
	metric("uptime_seconds", "gauge", "Seconds since start.", int64(snap.Uptime().Seconds()))
}

func boolMetric(b bool) int {
	if b {
		return 1
	}
	return 0
}
