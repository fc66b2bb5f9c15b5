// Package detect holds the anomaly detectors and the runner that executes
// them. Detectors are independent: none reads another's output, and their
// merged result is ordered by registration, never by completion.
package detect

import (
	"context"
	"time"

	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// Detection thresholds. These are fixed platform policy, not tunables.
const (
	// BacklogThreshold is the pending-AI count above which enrichment is
	// considered backlogged.
	BacklogThreshold = 50
	// StaleThreshold is the stale-profile count above which directory
	// freshness is flagged.
	StaleThreshold = 100
	// VelocityDelta is the single-step vote increase that counts as a
	// velocity spike.
	VelocityDelta = 1000
	// ClusterWindow and ClusterMinEvents define a coordinated-activity
	// cluster: more than ClusterMinEvents trail entries on one target
	// within the window.
	ClusterWindow    = time.Hour
	ClusterMinEvents = 50
	// SchedulerErrorThreshold is the recent-error count above which the job
	// scheduler is considered failing.
	SchedulerErrorThreshold = 3
)

// Result is one detector's contribution: issues plus how many vote
// anomalies it observed. Counts are additive across detectors.
type Result struct {
	VoteAnomalies int
	Issues        []types.Issue
}

// Detector is a single anomaly rule. Check must be safe to run concurrently
// with other detectors; the vote-event trail is the only shared mutable
// state and it is append-only.
type Detector interface {
	Name() string
	Check(ctx context.Context, m *collector.Metrics, store storage.Storage) (*Result, error)
}

// Registry returns the detectors in their fixed registration order. Merge
// order (and therefore issue order in the report) follows this slice.
func Registry() []Detector {
	return []Detector{
		&BacklogDetector{},
		&StalenessDetector{},
		&VoteSpikeDetector{},
		&VoteVelocityDetector{},
		&BehaviorDriftDetector{},
		&CoordinationDetector{},
		&OpsHealthDetector{},
	}
}
