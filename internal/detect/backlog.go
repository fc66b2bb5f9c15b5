package detect

import (
	"context"
	"fmt"

	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// BacklogDetector flags an oversized AI-enrichment backlog. A growing
// backlog means profiles are serving without narratives, which feeds the
// projected-stability discount.
type BacklogDetector struct{}

func (d *BacklogDetector) Name() string { return "ai_backlog" }

func (d *BacklogDetector) Check(ctx context.Context, m *collector.Metrics, _ storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricPendingAI); err != nil {
		return nil, err
	}

	res := &Result{}
	if m.PendingAI > BacklogThreshold {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeAIBacklog,
			Severity: types.SeverityMedium,
			Message:  fmt.Sprintf("%d profiles are waiting for AI enrichment (threshold %d)", m.PendingAI, BacklogThreshold),
		})
	}
	return res, nil
}

// StalenessDetector flags a directory that has stopped being updated.
type StalenessDetector struct{}

func (d *StalenessDetector) Name() string { return "stale_profiles" }

func (d *StalenessDetector) Check(ctx context.Context, m *collector.Metrics, _ storage.Storage) (*Result, error) {
	if err := m.Failed(collector.MetricStaleProfiles); err != nil {
		return nil, err
	}

	res := &Result{}
	if m.StaleProfiles > StaleThreshold {
		res.Issues = append(res.Issues, types.Issue{
			Code:     types.CodeStaleProfiles,
			Severity: types.SeverityMedium,
			Message:  fmt.Sprintf("%d profiles have not been updated recently (threshold %d)", m.StaleProfiles, StaleThreshold),
		})
	}
	return res, nil
}
