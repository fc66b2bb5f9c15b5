package detect

import (
	"context"
	"fmt"

	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// CoordinationDetector maintains the vote-event audit trail and flags
// clusters of non-organic activity: targets that accumulated more than
// ClusterMinEvents trail entries within the last hour.
//
// This is the only detector that writes: it appends the vote deltas observed
// this run to its own append-only trail before querying clusters. Appends
// never conflict with concurrent detectors because nothing else touches the
// table.
type CoordinationDetector struct{}

func (d *CoordinationDetector) Name() string { return "coordinated_activity" }

func (d *CoordinationDetector) Check(ctx context.Context, m *collector.Metrics, store storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricVoteObservations); err != nil {
		return nil, err
	}

	var events []types.VoteEvent
	for _, o := range m.Observations {
		if o.PrevVotes == nil || o.Votes == *o.PrevVotes {
			continue
		}
		events = append(events, types.VoteEvent{
			PoliticianID:  o.PoliticianID,
			PreviousVotes: *o.PrevVotes,
			NewVotes:      o.Votes,
			Delta:         o.Votes - *o.PrevVotes,
			CreatedAt:     m.CollectedAt,
		})
	}
	if err := store.AppendVoteEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("appending vote events: %w", err)
	}

	clusters, err := store.ListVoteClusters(ctx, ClusterWindow, ClusterMinEvents)
	if err != nil {
		return nil, fmt.Errorf("querying vote clusters: %w", err)
	}

	res := &Result{}
	for _, c := range clusters {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeCoordinatedActivity,
			Severity: types.SeverityHigh,
			Message:  fmt.Sprintf("politician %d received %d vote events in the last hour", c.PoliticianID, c.Events),
		})
	}
	return res, nil
}

// OpsHealthDetector folds upstream operational signals into the report:
// repeated job-scheduler failures and missing collaborator backends. It
// reads status flags only, never the primary record tables.
type OpsHealthDetector struct{}

func (d *OpsHealthDetector) Name() string { return "operational_health" }

func (d *OpsHealthDetector) Check(ctx context.Context, m *collector.Metrics, _ storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricSchedulerStatus); err != nil {
		return nil, err
	}

	res := &Result{}
	if m.SchedulerErrors > SchedulerErrorThreshold {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeSchedulerFailures,
			Severity: types.SeverityHigh,
			Message:  fmt.Sprintf("job scheduler reported %d recent errors", m.SchedulerErrors),
		})
	}
	if !m.VectorSearchUp {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeVectorSearchDown,
			Severity: types.SeverityMedium,
			Message:  "vector search backend is unavailable",
		})
	}
	if !m.NarrativeUp {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeNarrativeBackendDown,
			Severity: types.SeverityMedium,
			Message:  "narrative generation backend is unavailable",
		})
	}
	return res, nil
}
