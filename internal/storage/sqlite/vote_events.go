package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/janpulse/govaudit/internal/types"
)

// AppendVoteEvents inserts trail entries in a single transaction. The trail
// is append-only; nothing in this engine updates or deletes rows.
func (s *SQLiteStorage) AppendVoteEvents(ctx context.Context, events []types.VoteEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vote_events (politician_id, previous_votes, new_votes, delta, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare vote event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		createdAt := ev.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, ev.PoliticianID, ev.PreviousVotes, ev.NewVotes, ev.Delta, createdAt); err != nil {
			return fmt.Errorf("failed to insert vote event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vote events: %w", err)
	}
	return nil
}

// ListVoteClusters groups trail entries newer than the window by target and
// returns targets with more than minEvents entries.
func (s *SQLiteStorage) ListVoteClusters(ctx context.Context, window time.Duration, minEvents int) ([]types.VoteCluster, error) {
	cutoff := time.Now().Add(-window)
	rows, err := s.db.QueryContext(ctx, `
		SELECT politician_id, COUNT(*)
		FROM vote_events
		WHERE created_at >= ?
		GROUP BY politician_id
		HAVING COUNT(*) > ?
		ORDER BY COUNT(*) DESC, politician_id
	`, cutoff, minEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote clusters: %w", err)
	}
	defer rows.Close()

	var clusters []types.VoteCluster
	for rows.Next() {
		var c types.VoteCluster
		if err := rows.Scan(&c.PoliticianID, &c.Events); err != nil {
			return nil, fmt.Errorf("failed to scan vote cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote clusters: %w", err)
	}
	return clusters, nil
}

// CountVoteEvents returns the total size of the trail.
func (s *SQLiteStorage) CountVoteEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vote_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vote events: %w", err)
	}
	return n, nil
}
