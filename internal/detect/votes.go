package detect

import (
	"context"
	"fmt"

	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// VoteSpikeDetector flags profiles whose raw positive-vote count exceeds the
// platform's high-water mark. Each flagged profile is one high-severity
// issue and one vote anomaly.
type VoteSpikeDetector struct{}

func (d *VoteSpikeDetector) Name() string { return "vote_spike" }

func (d *VoteSpikeDetector) Check(ctx context.Context, m *collector.Metrics, _ storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricVoteSpikes); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, p := range m.VoteSpikes {
		res.VoteAnomalies++
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeVoteSpike,
			Severity: types.SeverityHigh,
			Message:  fmt.Sprintf("%s has %d positive votes, above the spike mark", p.Name, p.Votes),
		})
	}
	return res, nil
}

// VoteVelocityDetector compares each recently-updated profile's vote count
// against its immediately preceding recorded value. Deltas are keyed
// strictly per profile; a comparison never crosses profiles. Any spike
// yields one high-severity issue and each spike counts as a vote anomaly.
type VoteVelocityDetector struct{}

func (d *VoteVelocityDetector) Name() string { return "vote_velocity" }

func (d *VoteVelocityDetector) Check(ctx context.Context, m *collector.Metrics, _ storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricVoteObservations); err != nil {
		return nil, err
	}

	spikes := 0
	for _, o := range m.Observations {
		if o.PrevVotes == nil {
			continue
		}
		if o.Votes-*o.PrevVotes > VelocityDelta {
			spikes++
		}
	}

	res := &Result{VoteAnomalies: spikes}
	if spikes > 0 {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeVoteVelocity,
			Severity: types.SeverityHigh,
			Message:  fmt.Sprintf("%d profiles gained more than %d votes in a single step", spikes, VelocityDelta),
		})
	}
	return res, nil
}

// BehaviorDriftDetector flags profiles whose vote volume is inconsistent
// with their stated approval. These counts are reported through their own
// issue, not added to the vote-anomaly total.
type BehaviorDriftDetector struct{}

func (d *BehaviorDriftDetector) Name() string { return "behavior_drift" }

func (d *BehaviorDriftDetector) Check(ctx context.Context, m *collector.Metrics, _ storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricBehaviorOutliers); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, p := range m.BehaviorOutliers {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeBehaviorDrift,
			Severity: types.SeverityMedium,
			Message:  fmt.Sprintf("%s has %d positive votes despite %.1f approval", p.Name, p.Votes, p.Approval),
		})
	}
	return res, nil
}
