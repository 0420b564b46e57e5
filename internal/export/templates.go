package export

import (
	"bytes"
	"html/template"
	"time"
)

var rosterTemplate = template.Must(template.New("roster").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(rosterTemplateHTML))

// RenderRosterHTML renders the membership list as a printable page.
func RenderRosterHTML(roster Roster) (string, error) {
	var buf bytes.Buffer
	if err := rosterTemplate.Execute(&buf, roster); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const rosterTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.CoopName}} Membership List</title>
  <style>
    body { font-family: Arial, sans-serif; font-size: 10pt; line-height: 1.4; margin: 0; }
    h1 { font-size: 16pt; border-bottom: 2px solid #333; padding-bottom: 0.3rem; }
    h2 { font-size: 13pt; margin-top: 1.5rem; page-break-after: avoid; }
    .meta { color: #666; font-size: 9pt; margin-bottom: 1rem; }
    .reps { font-size: 9pt; color: #444; margin-bottom: 0.5rem; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 1rem; }
    th, td { border: 1px solid #bbb; padding: 3px 6px; text-align: left; vertical-align: top; }
    th { background: #eee; }
    .unit { white-space: nowrap; }
    @page { size: A4 landscape; }
  </style>
</head>
<body>
  <h1>{{.CoopName}} Membership List</h1>
  <div class="meta">Generated {{formatDate .GeneratedAt "Jan 2, 2006"}}</div>
  {{range .Blocks}}
  <h2>Block {{.BlockNumber}}</h2>
  <div class="reps">
    {{if .RoofMonitor}}Roof monitor: {{.RoofMonitor}}{{end}}
    {{if .Maintenance}}{{if .RoofMonitor}} &middot; {{end}}Maintenance: {{.Maintenance}}{{end}}
  </div>
  <table>
    <tr>
      <th class="unit">Unit</th>
      <th>Name</th>
      <th>Children</th>
      <th>Phone</th>
      <th>Email</th>
      <th>Committee(s)</th>
      <th>Chairship(s)</th>
    </tr>
    {{range .Units}}{{$unit := .UnitNumber}}{{range .Members}}
    <tr>
      <td class="unit">{{$unit}}</td>
      <td>{{.Name}}</td>
      <td>{{.Children}}</td>
      <td>{{.Phones}}</td>
      <td>{{.Email}}</td>
      <td>{{.Committees}}</td>
      <td>{{.Chairships}}</td>
    </tr>
    {{end}}{{end}}
  </table>
  {{end}}
</body>
</html>`
