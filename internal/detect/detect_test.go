package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/types"
)

// fakeStore satisfies storage.Storage with canned data. Only the methods the
// detectors touch carry behavior; the rest return zero values.
type fakeStore struct {
	appended   []types.VoteEvent
	clusters   []types.VoteCluster
	appendErr  error
	clusterErr error
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) CountPendingEnrichment(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeStore) CountStaleProfiles(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}

func (f *fakeStore) ListVoteSpikes(ctx context.Context, threshold int) ([]types.ProfileVotes, error) {
	return nil, nil
}

func (f *fakeStore) ListRecentVoteObservations(ctx context.Context, window time.Duration) ([]types.VoteObservation, error) {
	return nil, nil
}

func (f *fakeStore) ListBehavioralOutliers(ctx context.Context, maxApproval float64, minVotes int) ([]types.ProfileVotes, error) {
	return nil, nil
}

func (f *fakeStore) ListStateAggregates(ctx context.Context) ([]types.StateAggregate, error) {
	return nil, nil
}

func (f *fakeStore) GetStatus(ctx context.Context, key string) (string, error) { return "", nil }

func (f *fakeStore) SetStatus(ctx context.Context, key, value string) error { return nil }

func (f *fakeStore) AppendVoteEvents(ctx context.Context, events []types.VoteEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, events...)
	return nil
}

func (f *fakeStore) ListVoteClusters(ctx context.Context, window time.Duration, minEvents int) ([]types.VoteCluster, error) {
	if f.clusterErr != nil {
		return nil, f.clusterErr
	}
	return f.clusters, nil
}

func (f *fakeStore) CountVoteEvents(ctx context.Context) (int, error) {
	return len(f.appended), nil
}

func (f *fakeStore) InsertSnapshot(ctx context.Context, snap *types.Snapshot) error { return nil }

func (f *fakeStore) LatestSnapshotBefore(ctx context.Context, cutoff time.Time) (*types.Snapshot, error) {
	return nil, nil
}

func (f *fakeStore) GetSnapshot(ctx context.Context, id string) (*types.Snapshot, error) {
	return nil, nil
}

func (f *fakeStore) ListSnapshots(ctx context.Context, limit int) ([]*types.Snapshot, error) {
	return nil, nil
}

func (f *fakeStore) PruneSnapshots(ctx context.Context, olderThan time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) Close() error { return nil }

func intPtr(v int) *int { return &v }

func TestBacklogDetector(t *testing.T) {
	d := &BacklogDetector{}

	res, err := d.Check(context.Background(), &collector.Metrics{PendingAI: BacklogThreshold}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)

	res, err = d.Check(context.Background(), &collector.Metrics{PendingAI: BacklogThreshold + 1}, nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.CodeAIBacklog, res.Issues[0].Code)
	assert.Equal(t, types.SeverityMedium, res.Issues[0].Severity)
	assert.Equal(t, 0, res.VoteAnomalies)
}

func TestBacklogDetector_MetricFailed(t *testing.T) {
	m := &collector.Metrics{Errors: map[string]error{
		collector.MetricPendingAI: errors.New("query timeout"),
	}}

	_, err := (&BacklogDetector{}).Check(context.Background(), m, nil)
	assert.Error(t, err)
}

func TestStalenessDetector(t *testing.T) {
	d := &StalenessDetector{}

	res, err := d.Check(context.Background(), &collector.Metrics{StaleProfiles: StaleThreshold}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)

	res, err = d.Check(context.Background(), &collector.Metrics{StaleProfiles: 250}, nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.CodeStaleProfiles, res.Issues[0].Code)
	assert.Equal(t, types.SeverityMedium, res.Issues[0].Severity)
}

func TestVoteSpikeDetector_PerProfile(t *testing.T) {
	m := &collector.Metrics{VoteSpikes: []types.ProfileVotes{
		{PoliticianID: 1, Name: "A. Serrano", Votes: 6000},
		{PoliticianID: 2, Name: "B. Okafor", Votes: 9200},
	}}

	res, err := (&VoteSpikeDetector{}).Check(context.Background(), m, nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, 2, res.VoteAnomalies)
	for _, issue := range res.Issues {
		assert.Equal(t, types.CodeVoteSpike, issue.Code)
		assert.Equal(t, types.SeverityHigh, issue.Severity)
	}
	assert.Contains(t, res.Issues[0].Message, "A. Serrano")
	assert.Contains(t, res.Issues[1].Message, "B. Okafor")
}

func TestVoteVelocityDetector(t *testing.T) {
	m := &collector.Metrics{Observations: []types.VoteObservation{
		// First observation ever: no baseline, never a spike.
		{PoliticianID: 1, Votes: 5000, PrevVotes: nil},
		// Exactly at the delta: not a spike.
		{PoliticianID: 2, Votes: 2000, PrevVotes: intPtr(1000)},
		{PoliticianID: 3, Votes: 2001, PrevVotes: intPtr(1000)},
		{PoliticianID: 4, Votes: 9000, PrevVotes: intPtr(100)},
	}}

	res, err := (&VoteVelocityDetector{}).Check(context.Background(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.VoteAnomalies)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.CodeVoteVelocity, res.Issues[0].Code)
	assert.Equal(t, types.SeverityHigh, res.Issues[0].Severity)
	assert.Contains(t, res.Issues[0].Message, "2 profiles")
}

func TestVoteVelocityDetector_NoSpikes(t *testing.T) {
	m := &collector.Metrics{Observations: []types.VoteObservation{
		{PoliticianID: 1, Votes: 1200, PrevVotes: intPtr(1100)},
	}}

	res, err := (&VoteVelocityDetector{}).Check(context.Background(), m, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 0, res.VoteAnomalies)
}

func TestBehaviorDriftDetector(t *testing.T) {
	m := &collector.Metrics{BehaviorOutliers: []types.ProfileVotes{
		{PoliticianID: 7, Name: "C. Dunmore", Votes: 4100, Approval: 3.2},
	}}

	res, err := (&BehaviorDriftDetector{}).Check(context.Background(), m, nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.CodeBehaviorDrift, res.Issues[0].Code)
	assert.Equal(t, types.SeverityMedium, res.Issues[0].Severity)
	// Inconsistent behavior is its own signal, not a vote anomaly.
	assert.Equal(t, 0, res.VoteAnomalies)
}

func TestCoordinationDetector_AppendsTrail(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	m := &collector.Metrics{
		CollectedAt: now,
		Observations: []types.VoteObservation{
			{PoliticianID: 1, Votes: 500, PrevVotes: intPtr(400)},
			// Unchanged count: no trail entry.
			{PoliticianID: 2, Votes: 300, PrevVotes: intPtr(300)},
			// No baseline: no trail entry.
			{PoliticianID: 3, Votes: 100, PrevVotes: nil},
			{PoliticianID: 4, Votes: 90, PrevVotes: intPtr(120)},
		},
	}

	res, err := (&CoordinationDetector{}).Check(context.Background(), m, store)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)

	require.Len(t, store.appended, 2)
	assert.Equal(t, types.VoteEvent{
		PoliticianID: 1, PreviousVotes: 400, NewVotes: 500, Delta: 100, CreatedAt: now,
	}, store.appended[0])
	assert.Equal(t, -30, store.appended[1].Delta)
}

func TestCoordinationDetector_FlagsClusters(t *testing.T) {
	store := &fakeStore{clusters: []types.VoteCluster{
		{PoliticianID: 42, Events: 73},
	}}

	res, err := (&CoordinationDetector{}).Check(context.Background(), &collector.Metrics{}, store)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.CodeCoordinatedActivity, res.Issues[0].Code)
	assert.Equal(t, types.SeverityHigh, res.Issues[0].Severity)
	assert.Contains(t, res.Issues[0].Message, "42")
}

func TestCoordinationDetector_AppendFailure(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("disk full")}
	m := &collector.Metrics{Observations: []types.VoteObservation{
		{PoliticianID: 1, Votes: 10, PrevVotes: intPtr(5)},
	}}

	_, err := (&CoordinationDetector{}).Check(context.Background(), m, store)
	assert.Error(t, err)
}

func TestOpsHealthDetector(t *testing.T) {
	tests := []struct {
		name      string
		metrics   collector.Metrics
		wantCodes []string
	}{
		{
			"all healthy",
			collector.Metrics{SchedulerErrors: SchedulerErrorThreshold, VectorSearchUp: true, NarrativeUp: true},
			nil,
		},
		{
			"scheduler failing",
			collector.Metrics{SchedulerErrors: SchedulerErrorThreshold + 1, VectorSearchUp: true, NarrativeUp: true},
			[]string{types.CodeSchedulerFailures},
		},
		{
			"backends down",
			collector.Metrics{VectorSearchUp: false, NarrativeUp: false},
			[]string{types.CodeVectorSearchDown, types.CodeNarrativeBackendDown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := (&OpsHealthDetector{}).Check(context.Background(), &tt.metrics, nil)
			require.NoError(t, err)

			var codes []string
			for _, issue := range res.Issues {
				codes = append(codes, issue.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestOpsHealthDetector_SchedulerSeverity(t *testing.T) {
	m := &collector.Metrics{SchedulerErrors: 10, VectorSearchUp: true, NarrativeUp: true}
	res, err := (&OpsHealthDetector{}).Check(context.Background(), m, nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.SeverityHigh, res.Issues[0].Severity)
}
