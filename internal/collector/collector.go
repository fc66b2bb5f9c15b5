// Package collector issues the read-only aggregate queries that feed the
// anomaly detectors. It is pure data fetching: no judgment, no thresholds
// beyond the windows its queries are keyed by.
package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// Metric names used to key partial-failure records.
const (
	MetricPendingAI        = "pending_ai"
	MetricStaleProfiles    = "stale_profiles"
	MetricVoteSpikes       = "vote_spikes"
	MetricVoteObservations = "vote_observations"
	MetricBehaviorOutliers = "behavior_outliers"
	MetricStateAggregates  = "state_aggregates"
	MetricSchedulerStatus  = "scheduler_status"
)

// Config holds the windows and thresholds the collector's queries are keyed
// by. Defaults match the platform's legacy audit pass.
type Config struct {
	// StaleWindow is how long a profile may go without an update before it
	// counts as stale.
	StaleWindow time.Duration
	// VelocityWindow bounds the "recently updated" set for per-profile vote
	// observations.
	VelocityWindow time.Duration
	// SpikeThreshold is the raw positive-vote high-water mark.
	SpikeThreshold int
	// BehaviorMaxApproval / BehaviorMinVotes bound the votes-inconsistent-
	// with-approval query.
	BehaviorMaxApproval float64
	BehaviorMinVotes    int
}

// DefaultConfig returns the standard collection windows.
func DefaultConfig() Config {
	return Config{
		StaleWindow:         90 * 24 * time.Hour,
		VelocityWindow:      24 * time.Hour,
		SpikeThreshold:      5000,
		BehaviorMaxApproval: 10,
		BehaviorMinVotes:    2000,
	}
}

// Probe reports whether an external collaborator is reachable.
type Probe interface {
	Available(ctx context.Context) bool
}

// StatusProbe reads a collaborator's boolean status flag from the
// service_status table. A missing flag reads as unavailable: a collaborator
// that never reported cannot be assumed healthy.
type StatusProbe struct {
	Store storage.Storage
	Key   string
}

// Available implements Probe.
func (p StatusProbe) Available(ctx context.Context) bool {
	value, err := p.Store.GetStatus(ctx, p.Key)
	if err != nil {
		return false
	}
	return value == "true"
}

// Metrics is the raw collector output. Individual query failures are
// recorded per metric instead of aborting the whole collection, so a single
// broken aggregate degrades one detector rather than the run.
type Metrics struct {
	CollectedAt time.Time

	PendingAI        int
	StaleProfiles    int
	VoteSpikes       []types.ProfileVotes
	Observations     []types.VoteObservation
	BehaviorOutliers []types.ProfileVotes
	StateAggregates  []types.StateAggregate

	SchedulerErrors int
	VectorSearchUp  bool
	NarrativeUp     bool

	// Errors records per-metric query failures.
	Errors map[string]error
}

// Failed returns the query error recorded for a metric, or nil.
func (m *Metrics) Failed(metric string) error {
	return m.Errors[metric]
}

// Collector fetches raw aggregate figures from the record store and the
// collaborator status flags.
type Collector struct {
	store          storage.Storage
	cfg            Config
	vectorSearch   Probe
	narrativeProbe Probe
}

// New builds a collector. Nil probes fall back to the status-flag probes.
func New(store storage.Storage, cfg Config, vectorSearch, narrative Probe) *Collector {
	if vectorSearch == nil {
		vectorSearch = StatusProbe{Store: store, Key: storage.StatusVectorSearch}
	}
	if narrative == nil {
		narrative = StatusProbe{Store: store, Key: storage.StatusNarrative}
	}
	return &Collector{store: store, cfg: cfg, vectorSearch: vectorSearch, narrativeProbe: narrative}
}

// Collect runs every aggregate query once. It never returns an error for a
// partial failure; callers inspect Failed per metric. The engine checks
// store reachability separately before collection starts.
func (c *Collector) Collect(ctx context.Context) *Metrics {
	m := &Metrics{
		CollectedAt: time.Now(),
		Errors:      make(map[string]error),
	}

	var err error
	if m.PendingAI, err = c.store.CountPendingEnrichment(ctx); err != nil {
		m.Errors[MetricPendingAI] = err
	}
	if m.StaleProfiles, err = c.store.CountStaleProfiles(ctx, c.cfg.StaleWindow); err != nil {
		m.Errors[MetricStaleProfiles] = err
	}
	if m.VoteSpikes, err = c.store.ListVoteSpikes(ctx, c.cfg.SpikeThreshold); err != nil {
		m.Errors[MetricVoteSpikes] = err
	}
	if m.Observations, err = c.store.ListRecentVoteObservations(ctx, c.cfg.VelocityWindow); err != nil {
		m.Errors[MetricVoteObservations] = err
	}
	if m.BehaviorOutliers, err = c.store.ListBehavioralOutliers(ctx, c.cfg.BehaviorMaxApproval, c.cfg.BehaviorMinVotes); err != nil {
		m.Errors[MetricBehaviorOutliers] = err
	}
	if m.StateAggregates, err = c.store.ListStateAggregates(ctx); err != nil {
		m.Errors[MetricStateAggregates] = err
	}

	if raw, err := c.store.GetStatus(ctx, storage.StatusSchedulerErrors); err != nil {
		m.Errors[MetricSchedulerStatus] = err
	} else if raw != "" {
		// Malformed counters read as zero rather than failing the metric.
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			m.SchedulerErrors = n
		}
	}

	m.VectorSearchUp = c.vectorSearch.Available(ctx)
	m.NarrativeUp = c.narrativeProbe.Available(ctx)

	return m
}
