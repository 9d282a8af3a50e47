package reporting

import (
	"fmt"
	"html"
	"iter"
	"os"
	"strings"
	"time"

	"wirecrab/internal/capture"
	"wirecrab/internal/hosts"
)

// Session describes the capture a report covers.
type Session struct {
	Interface string
	Started   time.Time
	Ended     time.Time
	Traffic   capture.Stats
	DNS       capture.Stats
}

// GenerateSessionReport writes an HTML report of the host table to path.
func GenerateSessionReport(path string, session Session, entries iter.Seq[hosts.Entry]) error {
	var b strings.Builder

	b.WriteString(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>wirecrab Session Report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .unresolved { color: #888; }
    </style>
</head>
<body>
    <h1>wirecrab Session Report</h1>
    <div class="summary">
        <p><strong>Interface:</strong> %s</p>
        <p><strong>Started:</strong> %s</p>
        <p><strong>Duration:</strong> %s</p>
        <p><strong>Traffic packets:</strong> %d received, %d dropped</p>
        <p><strong>DNS packets:</strong> %d received, %d dropped</p>
    </div>

    <h2>Hosts</h2>
    <table>
        <thead>
            <tr>
                <th>#</th>
                <th>Address</th>
                <th>Host</th>
                <th>Packets</th>
            </tr>
        </thead>
        <tbody>
`,
		html.EscapeString(session.Started.Format("20060102_150405")),
		html.EscapeString(session.Interface),
		session.Started.Format(time.RFC1123),
		formatDuration(session.Ended.Sub(session.Started)),
		session.Traffic.Received, session.Traffic.TotalDropped(),
		session.DNS.Received, session.DNS.TotalDropped(),
	))

	n := 0
	for e := range entries {
		n++
		host := `<span class="unresolved">unresolved</span>`
		if e.Resolved {
			host = html.EscapeString(e.Domain)
		}
		b.WriteString(fmt.Sprintf("            <tr><td>%d</td><td>%s</td><td>%s</td><td>%d</td></tr>\n",
			n, e.Addr.String(), host, e.Count))
	}
	if n == 0 {
		b.WriteString("            <tr><td colspan=\"4\">No hosts observed during this session.</td></tr>\n")
	}

	b.WriteString(`        </tbody>
    </table>
</body>
</html>`)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}
