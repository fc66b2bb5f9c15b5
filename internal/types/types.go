// Package types defines the core data model shared across the audit engine:
// issues, reports, snapshots, and the raw shapes the collector produces.
package types

import (
	"time"
)

// Severity classifies how much an issue should drag down the health score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the three defined severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// RiskLevel is the coarse bucket derived from the health score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Issue codes emitted by the engine. Detectors own their codes; the engine
// itself only emits CodeDBUnavailable (degraded mode) and
// CodeDetectorUnavailable (a detector's backing query failed).
const (
	CodeDBUnavailable        = "db_unavailable"
	CodeDetectorUnavailable  = "detector_unavailable"
	CodeAIBacklog            = "ai_backlog"
	CodeStaleProfiles        = "stale_profiles"
	CodeVoteSpike            = "vote_spike"
	CodeVoteVelocity         = "vote_velocity"
	CodeBehaviorDrift        = "behavior_drift"
	CodeCoordinatedActivity  = "coordinated_activity"
	CodeSchedulerFailures    = "scheduler_failures"
	CodeVectorSearchDown     = "vector_search_unavailable"
	CodeNarrativeBackendDown = "narrative_backend_unavailable"
)

// Issue is one finding produced by a detector (or by the engine itself in
// degraded mode). Issues are immutable once created and rebuilt on every run.
type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// StateHealth is a per-state health figure, recomputed each run and never
// persisted on its own.
type StateHealth struct {
	State       string  `json:"state"`
	HealthScore float64 `json:"healthScore"`
}

// ReportStats carries the aggregate figures attached to a report.
// HealthDrift is a pointer so that "no prior snapshot" (nil) stays
// distinguishable from "no change" (zero).
type ReportStats struct {
	PendingAI           int           `json:"pendingAI"`
	VoteAnomalies       int           `json:"voteAnomalies"`
	StaleProfiles       int           `json:"staleProfiles"`
	GovernanceStability float64       `json:"governanceStability"`
	ProjectedStability  float64       `json:"projectedStability"`
	HealthDrift         *int          `json:"healthDrift,omitempty"`
	StateHealth         []StateHealth `json:"stateHealth"`
}

// AuditReport is the central value object of the engine. HealthScore is
// always derivable from Issues via the scoring formula; RiskLevel is a pure
// function of HealthScore. Hash is empty until the report is snapshotted,
// and is excluded from its own computation.
type AuditReport struct {
	HealthScore int         `json:"healthScore"`
	RiskLevel   RiskLevel   `json:"riskLevel"`
	Issues      []Issue     `json:"issues"`
	Stats       ReportStats `json:"stats"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Hash        string      `json:"hash,omitempty"`
}

// Snapshot is one persisted, hashed copy of a report. Rows form the
// append-only ledger the anchor publisher protects.
type Snapshot struct {
	ID        string      `json:"id"`
	Hash      string      `json:"hash"`
	Report    AuditReport `json:"report"`
	CreatedAt time.Time   `json:"createdAt"`
}

// VoteEvent is one entry in the vote-event audit trail owned by the
// coordinated-activity detector. The trail is append-only and is not pruned
// by this engine.
type VoteEvent struct {
	PoliticianID  int64     `json:"politicianId"`
	PreviousVotes int       `json:"previousVotes"`
	NewVotes      int       `json:"newVotes"`
	Delta         int       `json:"delta"`
	CreatedAt     time.Time `json:"createdAt"`
}

// VoteCluster is a target that accumulated enough trail events inside the
// coordination window to be flagged.
type VoteCluster struct {
	PoliticianID int64 `json:"politicianId"`
	Events       int   `json:"events"`
}

// ProfileVotes is a per-profile vote snapshot used by the spike and
// behavioral-drift detectors.
type ProfileVotes struct {
	PoliticianID int64   `json:"politicianId"`
	Name         string  `json:"name"`
	Votes        int     `json:"votes"`
	Approval     float64 `json:"approval"`
}

// VoteObservation pairs a profile's latest positive-vote count with the
// immediately preceding recorded value for that same profile. PrevVotes is
// nil when only one observation exists. Keyed strictly per profile so a
// velocity delta never compares two different politicians.
type VoteObservation struct {
	PoliticianID int64  `json:"politicianId"`
	Name         string `json:"name"`
	Votes        int    `json:"votes"`
	PrevVotes    *int   `json:"prevVotes,omitempty"`
}

// StateAggregate is the raw per-state rollup the collector fetches.
type StateAggregate struct {
	State        string  `json:"state"`
	Profiles     int     `json:"profiles"`
	MeanApproval float64 `json:"meanApproval"`
	AdverseCases int     `json:"adverseCases"`
}
