package narrative

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/janpulse/govaudit/internal/types"
)

// documentData feeds the transparency document template.
type documentData struct {
	Report         *types.AuditReport
	IntegrityScore int
	AnchorHash     string
	GeneratedAt    string
	Drift          string
	Narrative      *Narrative
}

var documentTemplate = template.Must(template.New("transparency").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Governance Integrity Report</title>
</head>
<body>
  <h1>Governance Integrity Report</h1>
  <p>Generated {{.GeneratedAt}}</p>

  <h2>Summary</h2>
  <table>
    <tr><td>Health score</td><td>{{.Report.HealthScore}} / 100</td></tr>
    <tr><td>Risk level</td><td>{{.Report.RiskLevel}}</td></tr>
    <tr><td>Governance stability</td><td>{{printf "%.1f" .Report.Stats.GovernanceStability}}</td></tr>
    <tr><td>Projected stability</td><td>{{printf "%.1f" .Report.Stats.ProjectedStability}}</td></tr>
    <tr><td>Integrity score</td><td>{{.IntegrityScore}}</td></tr>
    <tr><td>Health drift</td><td>{{.Drift}}</td></tr>
    <tr><td>Anchor hash</td><td>{{if .AnchorHash}}{{.AnchorHash}}{{else}}not anchored{{end}}</td></tr>
  </table>

  <h2>Issues ({{len .Report.Issues}})</h2>
  {{if .Report.Issues}}
  <ul>
    {{range .Report.Issues}}<li>[{{.Severity}}] {{.Code}}: {{.Message}}</li>
    {{end}}
  </ul>
  {{else}}<p>No issues detected.</p>{{end}}

  <h2>State Health</h2>
  {{if .Report.Stats.StateHealth}}
  <table>
    <tr><th>State</th><th>Health</th></tr>
    {{range .Report.Stats.StateHealth}}<tr><td>{{.State}}</td><td>{{printf "%.1f" .HealthScore}}</td></tr>
    {{end}}
  </table>
  {{else}}<p>No state data available.</p>{{end}}

  {{if .Narrative}}
  <h2>Narrative</h2>
  <p>{{.Narrative.Summary}}</p>
  <h3>Risk Analysis</h3>
  <p>{{.Narrative.RiskAnalysis}}</p>
  <h3>Executive Summary</h3>
  <p>{{.Narrative.ExecutiveSummary}}</p>
  {{if .Narrative.NextSteps}}
  <h3>Next Steps</h3>
  <ol>
    {{range .Narrative.NextSteps}}<li>{{.}}</li>
    {{end}}
  </ol>
  {{end}}
  {{end}}
</body>
</html>
`))

// RenderTransparencyDocument produces the public transparency document for a
// report. The narrative may be nil; the document renders without it.
func RenderTransparencyDocument(report *types.AuditReport, integrityScore int, anchorHash string, generatedAt time.Time, narrative *Narrative) ([]byte, error) {
	drift := "n/a (first run)"
	if report.Stats.HealthDrift != nil {
		drift = fmt.Sprintf("%+d", *report.Stats.HealthDrift)
	}

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, documentData{
		Report:         report,
		IntegrityScore: integrityScore,
		AnchorHash:     anchorHash,
		GeneratedAt:    generatedAt.UTC().Format(time.RFC3339),
		Drift:          drift,
		Narrative:      narrative,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering transparency document: %w", err)
	}
	return buf.Bytes(), nil
}
