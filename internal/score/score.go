// Package score implements the deterministic health scoring formula and the
// stability projections derived from it. Everything here is a pure function
// of already-computed report fields; no data access.
package score

import (
	"github.com/janpulse/govaudit/internal/types"
)

// Severity deductions. The starting score is 100 and each issue subtracts a
// fixed amount by severity.
const (
	DeductionHigh   = 30
	DeductionMedium = 15
	DeductionLow    = 5
)

// Risk tier cutoffs. Scores at or above RiskLowFloor are low risk; scores at
// or above RiskMediumFloor (but below RiskLowFloor) are medium; the rest high.
const (
	RiskLowFloor    = 70
	RiskMediumFloor = 40
)

// Health reduces an issue set to a single 0-100 score. Order-independent:
// only severity counts matter.
func Health(issues []types.Issue) int {
	s := 100
	for _, issue := range issues {
		switch issue.Severity {
		case types.SeverityHigh:
			s -= DeductionHigh
		case types.SeverityMedium:
			s -= DeductionMedium
		case types.SeverityLow:
			s -= DeductionLow
		}
	}
	return clampInt(s, 0, 100)
}

// RiskFor maps a health score to its risk tier. The boundaries are exact:
// 70 is low, 69 is medium, 40 is medium, 39 is high.
func RiskFor(health int) types.RiskLevel {
	switch {
	case health >= RiskLowFloor:
		return types.RiskLow
	case health >= RiskMediumFloor:
		return types.RiskMedium
	default:
		return types.RiskHigh
	}
}

// GovernanceStability is the current-state stability figure. Vote anomalies
// already happened, so they are weighted at full strength here.
func GovernanceStability(health, voteAnomalies int) float64 {
	return clampFloat(float64(health)-float64(voteAnomalies)*2, 0, 100)
}

// ProjectedStability is the forward-looking figure: anomalies are discounted
// and the enrichment backlog is blended in as a leading indicator.
func ProjectedStability(health, voteAnomalies, pendingAI int) float64 {
	return clampFloat(float64(health)-float64(voteAnomalies)*1.5-float64(pendingAI)*0.2, 0, 100)
}

// StateHealth converts raw per-state aggregates into per-state health
// figures: mean approval dragged down by adverse cases, clamped to [0,100].
func StateHealth(aggs []types.StateAggregate) []types.StateHealth {
	out := make([]types.StateHealth, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, types.StateHealth{
			State:       a.State,
			HealthScore: clampFloat(a.MeanApproval-float64(a.AdverseCases)*2, 0, 100),
		})
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
