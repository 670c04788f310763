package web

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/sweeney/freeze-guard/internal/freeze"
	"github.com/sweeney/freeze-guard/internal/status"
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
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"minutes": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 1, 64)
	},
	"dangerClass": func(l freeze.DangerLevel) string {
		switch l {
		case freeze.DangerHigh:
			return "high"
		case freeze.DangerMedium:
			return "medium"
		case freeze.DangerLow:
			return "low"
		default:
			return "none"
		}
	},
	"onOff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.Device}} freeze guard</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.none { color: green; }
.low { color: #b8860b; }
.medium { color: orange; font-weight: bold; }
.high { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Config.Device}} freeze guard</h1>

<h2>Risk</h2>
<table>
<tr><th>Danger</th><td id="danger" class="{{dangerClass .State.Risk.Level}}">{{.State.Risk.Level}}</td></tr>
<tr><th>Advisory</th><td class="{{dangerClass .Advisory}}">{{.Advisory}}</td></tr>
{{if .State.Risk.HasEstimate}}<tr><th>Minutes to freeze</th><td>{{minutes .State.Risk.Minutes}}</td></tr>{{end}}
<tr><th>Temperature</th><td id="temperature">{{num .State.Temperature}}&deg;F</td></tr>
<tr><th>Wind</th><td id="wind">{{num .State.WindSpeed}} mph</td></tr>
<tr><th>Updated</th><td>{{if .State.UpdatedAt.IsZero}}never{{else}}{{.State.UpdatedAt.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Active</th><td class="{{onOff .State.Active}}">{{onOff .State.Active}}</td></tr>
<tr><th>Manual override</th><td class="{{onOff .State.ManualOverride}}">{{onOff .State.ManualOverride}}</td></tr>
<tr><th>Valve</th><td class="{{onOff .State.ValveOpen}}">{{onOff .State.ValveOpen}}</td></tr>
<tr><th>Pump</th><td class="{{onOff .State.PumpControlOn}}">{{onOff .State.PumpControlOn}}</td></tr>
</table>

<h2>Location</h2>
<table>
<tr><th>Coordinate</th><td>{{if .State.HasCoordinate}}{{num .State.Coordinate.Lat}}, {{num .State.Coordinate.Long}}{{else}}not set{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .State.SetupComplete}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Model</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Warn levels</th><td>{{num .Config.Thresholds.Level1}} / {{num .Config.Thresholds.Level2}} / {{num .Config.Thresholds.Level3}} &deg;F</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() and Advisory() methods but the template needs fields.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Advisory freeze.DangerLevel
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Advisory: snap.Advisory(),
	}
	indexTmpl.Execute(w, data)
}
