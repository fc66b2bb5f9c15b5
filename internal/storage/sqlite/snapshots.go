package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/janpulse/govaudit/internal/types"
)

// Snapshot ledger. Rows are (id, hash, full report JSON including the
// embedded hash, created_at). Each write happens in one transaction so a
// concurrent reader never sees a half-written snapshot.

// InsertSnapshot appends one snapshot to the ledger.
func (s *SQLiteStorage) InsertSnapshot(ctx context.Context, snap *types.Snapshot) error {
	reportJSON, err := json.Marshal(snap.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, hash, report, created_at)
		VALUES (?, ?, ?, ?)
	`, snap.ID, snap.Hash, string(reportJSON), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LatestSnapshotBefore returns the most recent snapshot created strictly
// before cutoff, or nil when no prior snapshot exists. An explicit indexed
// lookup, not offset pagination, so a snapshot written during the current
// run can never shift the result.
func (s *SQLiteStorage) LatestSnapshotBefore(ctx context.Context, cutoff time.Time) (*types.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, report, created_at
		FROM snapshots
		WHERE created_at < ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, cutoff)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetSnapshot returns one snapshot by id, or nil when absent.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*types.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, report, created_at
		FROM snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context, limit int) ([]*types.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, report, created_at
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT ?
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

// PruneSnapshots deletes ledger rows older than the retention cutoff and
// returns how many were removed.
func (s *SQLiteStorage) PruneSnapshots(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*types.Snapshot, error) {
	var snap types.Snapshot
	var reportJSON string
	if err := row.Scan(&snap.ID, &snap.Hash, &reportJSON, &snap.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &snap.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot report: %w", err)
	}
	return &snap, nil
}
