package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpulse/govaudit/internal/types"
)

func sampleReport() types.AuditReport {
	drift := -5
	return types.AuditReport{
		HealthScore: 55,
		RiskLevel:   types.RiskMedium,
		Issues: []types.Issue{
			{Code: types.CodeAIBacklog, Severity: types.SeverityMedium, Message: "72 profiles waiting"},
			{Code: types.CodeVoteSpike, Severity: types.SeverityHigh, Message: "J. Whitfield has 8200 positive votes"},
		},
		Stats: types.ReportStats{
			PendingAI:           72,
			VoteAnomalies:       1,
			StaleProfiles:       12,
			GovernanceStability: 53,
			ProjectedStability:  39.1,
			HealthDrift:         &drift,
			StateHealth: []types.StateHealth{
				{State: "OH", HealthScore: 61.5},
			},
		},
		GeneratedAt: time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestReportHash_Deterministic(t *testing.T) {
	report := sampleReport()

	first, err := ReportHash(report)
	require.NoError(t, err)
	second, err := ReportHash(report)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestReportHash_IgnoresStoredHash(t *testing.T) {
	report := sampleReport()
	clean, err := ReportHash(report)
	require.NoError(t, err)

	report.Hash = "deadbeef"
	withHash, err := ReportHash(report)
	require.NoError(t, err)

	assert.Equal(t, clean, withHash)
}

func TestReportHash_SensitiveToContent(t *testing.T) {
	report := sampleReport()
	base, err := ReportHash(report)
	require.NoError(t, err)

	report.HealthScore = 54
	changed, err := ReportHash(report)
	require.NoError(t, err)

	assert.NotEqual(t, base, changed)
}

func TestCanonicalize_KeyOrderIndependent(t *testing.T) {
	a := []byte(`{"b":2,"a":{"y":[1,2,3],"x":null}}`)
	b := []byte(`{"a":{"x":null,"y":[1,2,3]},"b":2}`)

	ca, err := canonicalize(a)
	require.NoError(t, err)
	cb, err := canonicalize(b)
	require.NoError(t, err)

	assert.Equal(t, ca, cb)
	assert.Equal(t, `{"a":{"x":null,"y":[1,2,3]},"b":2}`, string(ca))
}

func TestCanonicalize_NumbersPassThroughVerbatim(t *testing.T) {
	// A float that would re-format if round-tripped through float64.
	in := []byte(`{"score":39.10,"big":9007199254740993}`)

	out, err := canonicalize(in)
	require.NoError(t, err)

	assert.Equal(t, `{"big":9007199254740993,"score":39.10}`, string(out))
}

func TestVerifySnapshot(t *testing.T) {
	report := sampleReport()
	hash, err := ReportHash(report)
	require.NoError(t, err)
	report.Hash = hash

	snap := &types.Snapshot{ID: "s1", Hash: hash, Report: report, CreatedAt: report.GeneratedAt}

	ok, err := VerifySnapshot(snap)
	require.NoError(t, err)
	assert.True(t, ok)

	// A tampered report no longer matches its stored digest.
	snap.Report.HealthScore = 99
	ok, err = VerifySnapshot(snap)
	require.NoError(t, err)
	assert.False(t, ok)
}
