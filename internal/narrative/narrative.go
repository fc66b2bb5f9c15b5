// Package narrative turns a completed audit report into human-readable
// output: a transparency document, and optionally an AI-written narrative.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/janpulse/govaudit/internal/ai"
	"github.com/janpulse/govaudit/internal/types"
)

// Narrative is the structured story the model writes about one report.
type Narrative struct {
	Summary            string   `json:"summary"`
	RiskAnalysis       string   `json:"riskAnalysis"`
	StabilityScore     int      `json:"stabilityScore"`
	StabilityRationale string   `json:"stabilityRationale"`
	NextSteps          []string `json:"nextSteps"`
	ExecutiveSummary   string   `json:"executiveSummary"`
}

const promptTemplate = `You are the transparency auditor for a public
governance accountability platform. Below is this run's integrity audit
report as JSON.

%s

Respond with a single JSON object with exactly these fields:
- "summary": overall platform health in 2-3 sentences
- "riskAnalysis": whether the anomalies look coordinated or isolated, and why
- "stabilityScore": an integer 0-100
- "stabilityRationale": one sentence justifying the stability score
- "nextSteps": prioritized list of concrete actions, most urgent first
- "executiveSummary": at most 200 words for a non-technical reader

Respond with only the JSON object, no surrounding text.`

// TextGenerator is the single call the narrative needs from the
// text-generation backend. *ai.Client satisfies it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Generate asks the text-generation backend for a narrative. Every failure
// path (no backend, call failure, malformed JSON) returns nil: the narrative
// is an enhancement, never a requirement of the render.
func Generate(ctx context.Context, client TextGenerator, report *types.AuditReport) *Narrative {
	if client == nil {
		return nil
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Warn("could not serialize report for narrative", "error", err)
		return nil
	}

	text, err := client.Generate(ctx, fmt.Sprintf(promptTemplate, reportJSON), 2048)
	if err != nil {
		slog.Warn("narrative generation failed", "error", err)
		return nil
	}

	parsed := ai.ParseJSON[Narrative](text, "narrative")
	if !parsed.Success {
		return nil
	}
	return &parsed.Data
}
