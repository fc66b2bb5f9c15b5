// Package audit runs the governance integrity audit: collect metrics, run
// the detectors, score the result, track drift against the snapshot ledger,
// and optionally persist and anchor the outcome.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/janpulse/govaudit/internal/anchor"
	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/detect"
	"github.com/janpulse/govaudit/internal/score"
	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// DefaultRetention is how long snapshot ledger rows are kept.
const DefaultRetention = 60 * 24 * time.Hour

// DegradedHealthScore is the fixed score of the fallback report produced
// when the record store is unreachable.
const DegradedHealthScore = 50

// Config wires an Engine.
type Config struct {
	Store     storage.Storage
	Collector collector.Config
	// VectorProbe and NarrativeProbe override the default status-flag
	// probes. Mainly for tests and the doctor command.
	VectorProbe    collector.Probe
	NarrativeProbe collector.Probe
	// Anchor is optional; nil or unconfigured means anchoring is disabled.
	Anchor *anchor.Publisher
	// Retention overrides the snapshot retention window (default 60 days).
	Retention time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine executes audit runs. One run at a time; callers that cannot
// guarantee that themselves should hold the storage run lock.
type Engine struct {
	store     storage.Storage
	collector *collector.Collector
	detectors []detect.Detector
	anchor    *anchor.Publisher
	retention time.Duration
	now       func() time.Time
}

// New builds an engine with the full detector registry.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	collCfg := cfg.Collector
	if collCfg == (collector.Config{}) {
		collCfg = collector.DefaultConfig()
	}
	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		store:     cfg.Store,
		collector: collector.New(cfg.Store, collCfg, cfg.VectorProbe, cfg.NarrativeProbe),
		detectors: detect.Registry(),
		anchor:    cfg.Anchor,
		retention: retention,
		now:       now,
	}, nil
}

// RunAudit executes one audit pass. When storeSnapshot is true the report is
// hashed, appended to the snapshot ledger (after retention pruning), and its
// hash is anchored best-effort.
//
// If the record store is unreachable the engine short-circuits to a degraded
// report with the same shape as a normal one: downstream consumers never
// need a special case. No detector, snapshot, or anchor work happens in that
// path.
func (e *Engine) RunAudit(ctx context.Context, storeSnapshot bool) (*types.AuditReport, error) {
	now := e.now()

	if err := e.store.Ping(ctx); err != nil {
		slog.Error("record store unreachable, producing degraded report", "error", err)
		return DegradedReport(now), nil
	}

	metrics := e.collector.Collect(ctx)
	merged := detect.RunAll(ctx, e.detectors, metrics, e.store)

	health := score.Health(merged.Issues)
	report := &types.AuditReport{
		HealthScore: health,
		RiskLevel:   score.RiskFor(health),
		Issues:      merged.Issues,
		Stats: types.ReportStats{
			PendingAI:           metrics.PendingAI,
			VoteAnomalies:       merged.VoteAnomalies,
			StaleProfiles:       metrics.StaleProfiles,
			GovernanceStability: score.GovernanceStability(health, merged.VoteAnomalies),
			ProjectedStability:  score.ProjectedStability(health, merged.VoteAnomalies, metrics.PendingAI),
			StateHealth:         score.StateHealth(metrics.StateAggregates),
		},
		GeneratedAt: now,
	}

	// Drift is informational only: a lookup failure degrades to "no drift
	// figure", it never fails the run or feeds back into the score.
	prev, err := e.store.LatestSnapshotBefore(ctx, now)
	if err != nil {
		slog.Warn("could not read prior snapshot for drift", "error", err)
	} else if prev != nil {
		drift := health - prev.Report.HealthScore
		report.Stats.HealthDrift = &drift
	}

	if !storeSnapshot {
		return report, nil
	}

	if err := e.persistSnapshot(ctx, report, now); err != nil {
		return report, err
	}

	if e.anchor.Enabled() {
		res := e.anchor.Publish(ctx, now, report.Hash)
		switch {
		case res.Anchored:
			slog.Info("report hash anchored", "hash", report.Hash)
		case res.Err != nil:
			slog.Warn("report not anchored", "error", res.Err)
		}
	}

	return report, nil
}

// persistSnapshot hashes the report, prunes expired ledger rows, and appends
// the new snapshot with the hash embedded.
func (e *Engine) persistSnapshot(ctx context.Context, report *types.AuditReport, now time.Time) error {
	hash, err := ReportHash(*report)
	if err != nil {
		return fmt.Errorf("hashing report: %w", err)
	}
	report.Hash = hash

	if pruned, err := e.store.PruneSnapshots(ctx, now.Add(-e.retention)); err != nil {
		slog.Warn("snapshot retention prune failed", "error", err)
	} else if pruned > 0 {
		slog.Info("pruned expired snapshots", "count", pruned)
	}

	snap := &types.Snapshot{
		ID:        uuid.New().String(),
		Hash:      hash,
		Report:    *report,
		CreatedAt: now,
	}
	if err := e.store.InsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	return nil
}

// DegradedReport is the fixed fallback produced when the record store is
// unreachable: one high-severity issue, score 50, medium risk, stats zeroed.
func DegradedReport(now time.Time) *types.AuditReport {
	return &types.AuditReport{
		HealthScore: DegradedHealthScore,
		RiskLevel:   types.RiskMedium,
		Issues: []types.Issue{{
			Code:     types.CodeDBUnavailable,
			Severity: types.SeverityHigh,
			Message:  "record store is unreachable; audit ran in degraded mode",
		}},
		Stats: types.ReportStats{
			StateHealth: []types.StateHealth{},
		},
		GeneratedAt: now,
	}
}
