package detect

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/storage"
	"github.com/janpulse/govaudit/internal/types"
)

// Merged is the combined output of one detector pass, ordered by detector
// registration, never by completion.
type Merged struct {
	Issues        []types.Issue
	VoteAnomalies int
}

// RunAll executes the detectors concurrently and merges their results
// deterministically. A failing detector never aborts the pass: its
// contribution becomes zero issues plus one low-severity
// detector_unavailable issue, so the gap is visible in the report instead
// of silently vanishing.
func RunAll(ctx context.Context, detectors []Detector, m *collector.Metrics, store storage.Storage) *Merged {
	results := make([]*Result, len(detectors))
	errs := make([]error, len(detectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		i, d := i, d
		g.Go(func() error {
			results[i], errs[i] = d.Check(gctx, m, store)
			return nil
		})
	}
	// Goroutines only record into their own slot, so Wait cannot fail.
	_ = g.Wait()

	merged := &Merged{}
	for i, d := range detectors {
		if errs[i] != nil {
			slog.Warn("detector failed", "detector", d.Name(), "error", errs[i])
			merged.Issues = append(merged.Issues, types.Issue{
				Code:     types.CodeDetectorUnavailable,
				Severity: types.SeverityLow,
				Message:  fmt.Sprintf("detector %s could not run: %v", d.Name(), errs[i]),
			})
			continue
		}
		merged.Issues = append(merged.Issues, results[i].Issues...)
		merged.VoteAnomalies += results[i].VoteAnomalies
	}
	return merged
}
