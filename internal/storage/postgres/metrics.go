package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/janpulse/govaudit/internal/types"
)

// Read-only aggregates over the platform's record tables. COALESCE keeps
// partially-populated rows from failing the scan.

// CountPendingEnrichment counts profiles with no AI-generated narrative.
func (s *PostgresStorage) CountPendingEnrichment(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM politicians
		WHERE ai_summary IS NULL OR ai_summary = ''
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending enrichment: %w", err)
	}
	return n, nil
}

// CountStaleProfiles counts profiles not updated within olderThan.
func (s *PostgresStorage) CountStaleProfiles(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM politicians
		WHERE updated_at IS NULL OR updated_at < $1
	`, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stale profiles: %w", err)
	}
	return n, nil
}

// ListVoteSpikes returns profiles whose positive-vote count exceeds threshold.
func (s *PostgresStorage) ListVoteSpikes(ctx context.Context, threshold int) ([]types.ProfileVotes, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(positive_votes, 0), COALESCE(approval_rating, 0)
		FROM politicians
		WHERE COALESCE(positive_votes, 0) > $1
		ORDER BY positive_votes DESC
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote spikes: %w", err)
	}
	defer rows.Close()
	return scanProfileVotes(rows)
}

// ListBehavioralOutliers returns profiles with approval below maxApproval yet
// positive votes above minVotes.
func (s *PostgresStorage) ListBehavioralOutliers(ctx context.Context, maxApproval float64, minVotes int) ([]types.ProfileVotes, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(positive_votes, 0), COALESCE(approval_rating, 0)
		FROM politicians
		WHERE COALESCE(approval_rating, 0) < $1 AND COALESCE(positive_votes, 0) > $2
		ORDER BY positive_votes DESC
	`, maxApproval, minVotes)
	if err != nil {
		return nil, fmt.Errorf("failed to query behavioral outliers: %w", err)
	}
	defer rows.Close()
	return scanProfileVotes(rows)
}

// ListRecentVoteObservations pairs each recently-updated profile's latest
// vote count with its immediately preceding observation, partitioned
// strictly per profile.
func (s *PostgresStorage) ListRecentVoteObservations(ctx context.Context, window time.Duration) ([]types.VoteObservation, error) {
	cutoff := time.Now().Add(-window)
	rows, err := s.pool.Query(ctx, `
		SELECT politician_id, name, votes, prev_votes FROM (
			SELECT h.politician_id,
			       p.name,
			       h.positive_votes AS votes,
			       LAG(h.positive_votes) OVER (
			           PARTITION BY h.politician_id ORDER BY h.recorded_at, h.id
			       ) AS prev_votes,
			       ROW_NUMBER() OVER (
			           PARTITION BY h.politician_id ORDER BY h.recorded_at DESC, h.id DESC
			       ) AS rn
			FROM vote_history h
			JOIN politicians p ON p.id = h.politician_id
			WHERE p.updated_at >= $1
		) latest
		WHERE rn = 1
		ORDER BY politician_id
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote observations: %w", err)
	}
	defer rows.Close()

	var obs []types.VoteObservation
	for rows.Next() {
		var o types.VoteObservation
		var prev *int
		if err := rows.Scan(&o.PoliticianID, &o.Name, &o.Votes, &prev); err != nil {
			return nil, fmt.Errorf("failed to scan vote observation: %w", err)
		}
		o.PrevVotes = prev
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote observations: %w", err)
	}
	return obs, nil
}

// ListStateAggregates returns per-state profile counts, mean approval, and
// summed adverse cases.
func (s *PostgresStorage) ListStateAggregates(ctx context.Context) ([]types.StateAggregate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(NULLIF(state, ''), 'unknown'),
		       COUNT(*),
		       COALESCE(AVG(COALESCE(approval_rating, 0)), 0),
		       COALESCE(SUM(COALESCE(adverse_cases, 0)), 0)
		FROM politicians
		GROUP BY COALESCE(NULLIF(state, ''), 'unknown')
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query state aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []types.StateAggregate
	for rows.Next() {
		var a types.StateAggregate
		if err := rows.Scan(&a.State, &a.Profiles, &a.MeanApproval, &a.AdverseCases); err != nil {
			return nil, fmt.Errorf("failed to scan state aggregate: %w", err)
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate state aggregates: %w", err)
	}
	return aggs, nil
}

func scanProfileVotes(rows pgx.Rows) ([]types.ProfileVotes, error) {
	var profiles []types.ProfileVotes
	for rows.Next() {
		var p types.ProfileVotes
		if err := rows.Scan(&p.PoliticianID, &p.Name, &p.Votes, &p.Approval); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}
