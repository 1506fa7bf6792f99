package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/gas-meter/internal/report"
	"github.com/sweeney/gas-meter/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ms": func(ms int64) string {
		return (time.Duration(ms) * time.Millisecond).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Gas Meter</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.closed { color: green; font-weight: bold; }
.open { color: #888; }
.pending { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Gas Meter (node {{.Config.NodeID}})</h1>

<h2>Meter</h2>
<table>
<tr><th>Mode</th><td id="mode" class="{{if .Node.BaselineValid}}connected{{else}}pending{{end}}">{{.Node.Mode}}</td></tr>
<tr><th>Contact</th><td id="contact" class="{{if .ContactClosed}}closed{{else}}open{{end}}">{{.Contact}}</td></tr>
<tr><th>Pending pulses</th><td>{{.Node.Pending}}</td></tr>
<tr><th>Absolute count</th><td>{{if .Node.BaselineValid}}{{.Node.Absolute}}{{else}}awaiting baseline{{end}}</td></tr>
<tr><th>Hourly pulses</th><td>{{.Node.Hourly}}</td></tr>
<tr><th>Liters per pulse</th><td>{{.Config.LitersPerPulse}}</td></tr>
</table>

<h2>Last Reports</h2>
<table>
{{range .Last}}<tr><th>{{.Name}}</th><td>{{.Payload}}</td></tr>
{{else}}<tr><td colspan="2">none yet</td></tr>
{{end}}</table>

<h2>Transport</h2>
<table>
<tr><th>{{.Config.Transport}}</th><td class="{{if .TransportConnected}}connected{{else}}disconnected{{end}}">{{if .TransportConnected}}connected{{else}}disconnected{{end}}{{if .TransportSleeping}} (sleeping){{end}}</td></tr>
<tr><th>Endpoint</th><td>{{.Config.Endpoint}}</td></tr>
<tr><th>Sends</th><td>{{.Node.Sends}} ({{.Node.SendErrors}} failed)</td></tr>
<tr><th>Baseline updates</th><td>{{.Node.Rebases}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Boot ID</th><td>{{.BootID}}</td></tr>
<tr><th>Ticks</th><td>{{.Ticks}} @ {{.Config.TickRate}}Hz</td></tr>
<tr><th>Min report</th><td>{{ms .Config.MinReportMs}}{{if .Config.Quick}} (quick){{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{ms .Config.HeartbeatMs}}{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type lastRow struct {
	Name    string
	Payload string
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	var rows []lastRow
	for _, k := range report.Kinds() {
		if r, ok := snap.Node.LastSent[k]; ok {
			rows = append(rows, lastRow{Name: k.String(), Payload: r.Payload()})
		}
	}
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Contact string
		Last    []lastRow
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Contact:  status.ContactString(snap.ContactClosed),
		Last:     rows,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
