package narrative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpulse/govaudit/internal/types"
)

var docTime = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func docReport() *types.AuditReport {
	return &types.AuditReport{
		HealthScore: 70,
		RiskLevel:   types.RiskLow,
		Issues: []types.Issue{
			{Code: types.CodeStaleProfiles, Severity: types.SeverityMedium, Message: "140 profiles stale"},
		},
		Stats: types.ReportStats{
			GovernanceStability: 68.0,
			ProjectedStability:  65.5,
			StateHealth: []types.StateHealth{
				{State: "VT", HealthScore: 72.4},
			},
		},
		GeneratedAt: docTime,
	}
}

func TestRenderTransparencyDocument(t *testing.T) {
	report := docReport()

	out, err := RenderTransparencyDocument(report, 70, "abc123hash", docTime, nil)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Governance Integrity Report")
	assert.Contains(t, html, "70 / 100")
	assert.Contains(t, html, "low")
	assert.Contains(t, html, "68.0")
	assert.Contains(t, html, "65.5")
	assert.Contains(t, html, "abc123hash")
	assert.Contains(t, html, "140 profiles stale")
	assert.Contains(t, html, "VT")
	assert.Contains(t, html, "72.4")
	assert.Contains(t, html, "2026-05-01T08:00:00Z")
	// No prior snapshot: drift renders as first-run.
	assert.Contains(t, html, "n/a (first run)")
	// No narrative section without a narrative.
	assert.NotContains(t, html, "<h2>Narrative</h2>")
}

func TestRenderTransparencyDocument_WithDriftAndNarrative(t *testing.T) {
	report := docReport()
	drift := -12
	report.Stats.HealthDrift = &drift

	story := &Narrative{
		Summary:          "Platform health declined this week.",
		RiskAnalysis:     "Stale profiles are accumulating.",
		ExecutiveSummary: "Watch directory freshness.",
		NextSteps:        []string{"Re-run the enrichment job", "Review scheduler logs"},
	}

	out, err := RenderTransparencyDocument(report, 70, "", docTime, story)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "-12")
	assert.Contains(t, html, "not anchored")
	assert.Contains(t, html, "Platform health declined this week.")
	assert.Contains(t, html, "Re-run the enrichment job")
}

func TestRenderTransparencyDocument_EscapesContent(t *testing.T) {
	report := docReport()
	report.Issues[0].Message = `<script>alert("x")</script>`

	out, err := RenderTransparencyDocument(report, 70, "", docTime, nil)
	require.NoError(t, err)

	html := string(out)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderTransparencyDocument_NoIssues(t *testing.T) {
	report := docReport()
	report.Issues = nil
	report.Stats.StateHealth = nil

	out, err := RenderTransparencyDocument(report, 100, "", docTime, nil)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "No issues detected.")
	assert.Contains(t, html, "No state data available.")
}
