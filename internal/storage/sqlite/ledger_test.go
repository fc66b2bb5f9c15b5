package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpulse/govaudit/internal/types"
)

func TestAppendVoteEvents_EmptyIsNoOp(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendVoteEvents(context.Background(), nil))

	n, err := store.CountVoteEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestVoteEventTrail_Clusters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var events []types.VoteEvent
	// 51 recent events on target 1 crosses the >50 line; 10 on target 2
	// does not; 60 stale events on target 3 fall outside the window.
	for i := 0; i < 51; i++ {
		events = append(events, types.VoteEvent{
			PoliticianID: 1, PreviousVotes: i, NewVotes: i + 1, Delta: 1,
			CreatedAt: now.Add(-time.Minute),
		})
	}
	for i := 0; i < 10; i++ {
		events = append(events, types.VoteEvent{
			PoliticianID: 2, PreviousVotes: i, NewVotes: i + 1, Delta: 1,
			CreatedAt: now.Add(-time.Minute),
		})
	}
	for i := 0; i < 60; i++ {
		events = append(events, types.VoteEvent{
			PoliticianID: 3, PreviousVotes: i, NewVotes: i + 1, Delta: 1,
			CreatedAt: now.Add(-10 * 24 * time.Hour),
		})
	}
	require.NoError(t, store.AppendVoteEvents(ctx, events))

	clusters, err := store.ListVoteClusters(ctx, 48*time.Hour, 50)
	require.NoError(t, err)

	require.Len(t, clusters, 1)
	assert.Equal(t, int64(1), clusters[0].PoliticianID)
	assert.Equal(t, 51, clusters[0].Events)

	total, err := store.CountVoteEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 121, total)
}

func sampleSnapshot(id string, score int, createdAt time.Time) *types.Snapshot {
	return &types.Snapshot{
		ID:   id,
		Hash: "hash-" + id,
		Report: types.AuditReport{
			HealthScore: score,
			RiskLevel:   types.RiskLow,
			Issues:      []types.Issue{},
			Stats:       types.ReportStats{StateHealth: []types.StateHealth{}},
			GeneratedAt: createdAt,
			Hash:        "hash-" + id,
		},
		CreatedAt: createdAt,
	}
}

func TestSnapshotLedger_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	want := sampleSnapshot("s1", 85, now)
	require.NoError(t, store.InsertSnapshot(ctx, want))

	got, err := store.GetSnapshot(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "hash-s1", got.Hash)
	assert.Equal(t, 85, got.Report.HealthScore)
	assert.Equal(t, "hash-s1", got.Report.Hash)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestGetSnapshot_AbsentIsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetSnapshot(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestSnapshotBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot("old", 60, now.Add(-48*time.Hour))))
	require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot("mid", 70, now.Add(-24*time.Hour))))
	require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot("new", 80, now)))

	prev, err := store.LatestSnapshotBefore(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, prev)
	// Strictly before the cutoff: the snapshot at exactly now is excluded.
	assert.Equal(t, "mid", prev.ID)
	assert.Equal(t, 70, prev.Report.HealthScore)
}

func TestLatestSnapshotBefore_EmptyLedger(t *testing.T) {
	store := newTestStore(t)

	prev, err := store.LatestSnapshotBefore(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot(id, 50+i, now.Add(time.Duration(i)*time.Hour))))
	}

	snaps, err := store.ListSnapshots(ctx, 2)
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	assert.Equal(t, "c", snaps[0].ID)
	assert.Equal(t, "b", snaps[1].ID)
}

func TestPruneSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot("expired1", 50, now.Add(-90*24*time.Hour))))
	require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot("expired2", 50, now.Add(-61*24*time.Hour))))
	require.NoError(t, store.InsertSnapshot(ctx, sampleSnapshot("kept", 50, now.Add(-10*24*time.Hour))))

	pruned, err := store.PruneSnapshots(ctx, now.Add(-60*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	snaps, err := store.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "kept", snaps[0].ID)
}
