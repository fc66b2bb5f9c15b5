// Package storage defines the storage contract for the audit engine and
// dispatches to a concrete backend (SQLite by default, PostgreSQL when a DSN
// is configured).
//
// The engine is read-only against the platform's record tables. It owns
// exactly two support tables of its own: the vote-event audit trail
// (append-only, never pruned here) and the snapshot ledger (append-only,
// retention-pruned).
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/janpulse/govaudit/internal/storage/postgres"
	"github.com/janpulse/govaudit/internal/storage/sqlite"
	"github.com/janpulse/govaudit/internal/types"
)

// Storage is the backend contract. All methods take a context and are
// expected to be bounded by the caller's deadline.
type Storage interface {
	// Ping verifies the backing store is reachable. The engine calls this
	// once at the start of a run and degrades if it fails.
	Ping(ctx context.Context) error

	// Record-store aggregates (read-only).
	CountPendingEnrichment(ctx context.Context) (int, error)
	CountStaleProfiles(ctx context.Context, olderThan time.Duration) (int, error)
	ListVoteSpikes(ctx context.Context, threshold int) ([]types.ProfileVotes, error)
	ListRecentVoteObservations(ctx context.Context, window time.Duration) ([]types.VoteObservation, error)
	ListBehavioralOutliers(ctx context.Context, maxApproval float64, minVotes int) ([]types.ProfileVotes, error)
	ListStateAggregates(ctx context.Context) ([]types.StateAggregate, error)

	// Collaborator status flags (written by the job scheduler and the
	// vector-search/narrative services, read by the ops detectors).
	GetStatus(ctx context.Context, key string) (string, error)
	SetStatus(ctx context.Context, key, value string) error

	// Vote-event audit trail (owned by the coordinated-activity detector).
	AppendVoteEvents(ctx context.Context, events []types.VoteEvent) error
	ListVoteClusters(ctx context.Context, window time.Duration, minEvents int) ([]types.VoteCluster, error)
	CountVoteEvents(ctx context.Context) (int, error)

	// Snapshot ledger.
	InsertSnapshot(ctx context.Context, snap *types.Snapshot) error
	LatestSnapshotBefore(ctx context.Context, cutoff time.Time) (*types.Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*types.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*types.Snapshot, error)
	PruneSnapshots(ctx context.Context, olderThan time.Time) (int, error)

	Close() error
}

// Status keys the collaborators maintain in the service_status table.
const (
	StatusSchedulerErrors = "scheduler_error_count"
	StatusVectorSearch    = "vector_search_available"
	StatusNarrative       = "narrative_backend_available"
)

// Config selects and configures a backend.
type Config struct {
	// Path is the SQLite database path. Used when DSN is empty.
	Path string
	// DSN is a postgres:// connection string. When set, the PostgreSQL
	// backend is used instead of SQLite.
	DSN string
}

// DefaultConfig returns the standard local configuration.
func DefaultConfig() *Config {
	return &Config{Path: ".govaudit/audit.db"}
}

// NewStorage opens the configured backend.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		return postgres.New(ctx, cfg.DSN)
	}

	if cfg.Path == "" {
		cfg.Path = ".govaudit/audit.db"
	}
	return sqlite.New(cfg.Path)
}

// Compile-time checks that both backends satisfy the contract.
var (
	_ Storage = (*sqlite.SQLiteStorage)(nil)
	_ Storage = (*postgres.PostgresStorage)(nil)
)
