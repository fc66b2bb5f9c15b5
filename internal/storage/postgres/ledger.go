package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/janpulse/govaudit/internal/types"
)

// AppendVoteEvents inserts trail entries in one transaction.
func (s *PostgresStorage) AppendVoteEvents(ctx context.Context, events []types.VoteEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ev := range events {
		createdAt := ev.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO vote_events (politician_id, previous_votes, new_votes, delta, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, ev.PoliticianID, ev.PreviousVotes, ev.NewVotes, ev.Delta, createdAt)
		if err != nil {
			return fmt.Errorf("failed to insert vote event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit vote events: %w", err)
	}
	return nil
}

// ListVoteClusters groups recent trail entries by target.
func (s *PostgresStorage) ListVoteClusters(ctx context.Context, window time.Duration, minEvents int) ([]types.VoteCluster, error) {
	cutoff := time.Now().Add(-window)
	rows, err := s.pool.Query(ctx, `
		SELECT politician_id, COUNT(*)
		FROM vote_events
		WHERE created_at >= $1
		GROUP BY politician_id
		HAVING COUNT(*) > $2
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
func (s *PostgresStorage) CountVoteEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM vote_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vote events: %w", err)
	}
	return n, nil
}

// InsertSnapshot appends one snapshot to the ledger.
func (s *PostgresStorage) InsertSnapshot(ctx context.Context, snap *types.Snapshot) error {
	reportJSON, err := json.Marshal(snap.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshots (id, hash, report, created_at)
		VALUES ($1, $2, $3, $4)
	`, snap.ID, snap.Hash, reportJSON, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LatestSnapshotBefore returns the most recent snapshot created strictly
// before cutoff, or nil when none exists.
func (s *PostgresStorage) LatestSnapshotBefore(ctx context.Context, cutoff time.Time) (*types.Snapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, hash, report, created_at
		FROM snapshots
		WHERE created_at < $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, cutoff)

	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetSnapshot returns one snapshot by id, or nil when absent.
func (s *PostgresStorage) GetSnapshot(ctx context.Context, id string) (*types.Snapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, hash, report, created_at
		FROM snapshots
		WHERE id = $1
	`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *PostgresStorage) ListSnapshots(ctx context.Context, limit int) ([]*types.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, hash, report, created_at
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*types.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snaps, nil
}

// PruneSnapshots deletes ledger rows older than the retention cutoff.
func (s *PostgresStorage) PruneSnapshots(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM snapshots WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*types.Snapshot, error) {
	var snap types.Snapshot
	var reportJSON []byte
	if err := row.Scan(&snap.ID, &snap.Hash, &reportJSON, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	if err := json.Unmarshal(reportJSON, &snap.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot report: %w", err)
	}
	return &snap, nil
}
