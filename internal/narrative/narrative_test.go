package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator is a canned text-generation backend.
type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return s.text, s.err
}

func TestGenerate_NoBackend(t *testing.T) {
	// No configured backend means no narrative, never an error.
	assert.Nil(t, Generate(context.Background(), nil, docReport()))
}

func TestGenerate_BackendFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("api unavailable")}
	assert.Nil(t, Generate(context.Background(), gen, docReport()))
}

func TestGenerate_MalformedResponse(t *testing.T) {
	gen := &stubGenerator{text: "I am unable to produce JSON today."}
	assert.Nil(t, Generate(context.Background(), gen, docReport()))
}

func TestGenerate_WellFormedResponse(t *testing.T) {
	gen := &stubGenerator{text: "```json\n" + `{
		"summary": "Healthy overall.",
		"riskAnalysis": "Anomalies look isolated.",
		"stabilityScore": 82,
		"stabilityRationale": "Few issues and stable stats.",
		"nextSteps": ["Clear the enrichment backlog"],
		"executiveSummary": "The platform is in good shape."
	}` + "\n```"}

	story := Generate(context.Background(), gen, docReport())

	require.NotNil(t, story)
	assert.Equal(t, "Healthy overall.", story.Summary)
	assert.Equal(t, 82, story.StabilityScore)
	assert.Equal(t, []string{"Clear the enrichment backlog"}, story.NextSteps)
}
