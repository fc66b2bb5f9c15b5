package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Summary string   `json:"summary"`
	Score   int      `json:"score"`
	Items   []string `json:"items"`
}

func TestParseJSON_Direct(t *testing.T) {
	res := ParseJSON[testPayload](`{"summary":"ok","score":7,"items":["a"]}`, "test")

	require.True(t, res.Success)
	assert.Equal(t, "ok", res.Data.Summary)
	assert.Equal(t, 7, res.Data.Score)
	assert.Equal(t, []string{"a"}, res.Data.Items)
}

func TestParseJSON_CodeFence(t *testing.T) {
	text := "```json\n{\"summary\":\"fenced\",\"score\":3}\n```"

	res := ParseJSON[testPayload](text, "test")

	require.True(t, res.Success)
	assert.Equal(t, "fenced", res.Data.Summary)
}

func TestParseJSON_BareFence(t *testing.T) {
	text := "```\n{\"summary\":\"bare\"}\n```"

	res := ParseJSON[testPayload](text, "test")

	require.True(t, res.Success)
	assert.Equal(t, "bare", res.Data.Summary)
}

func TestParseJSON_TrailingCommas(t *testing.T) {
	text := `{"summary":"loose","items":["a","b",],}`

	res := ParseJSON[testPayload](text, "test")

	require.True(t, res.Success)
	assert.Equal(t, "loose", res.Data.Summary)
	assert.Equal(t, []string{"a", "b"}, res.Data.Items)
}

func TestParseJSON_MixedContent(t *testing.T) {
	text := "Sure, here is the analysis you asked for:\n\n" +
		`{"summary":"embedded","score":5}` + "\n\nLet me know if you need more."

	res := ParseJSON[testPayload](text, "test")

	require.True(t, res.Success)
	assert.Equal(t, "embedded", res.Data.Summary)
	assert.Equal(t, 5, res.Data.Score)
}

func TestParseJSON_FencedWithProseAndTrailingComma(t *testing.T) {
	text := "Here you go:\n```json\n{\"summary\":\"messy\",\"score\":1,}\n```\nDone."

	res := ParseJSON[testPayload](text, "test")

	require.True(t, res.Success)
	assert.Equal(t, "messy", res.Data.Summary)
}

func TestParseJSON_Garbage(t *testing.T) {
	res := ParseJSON[testPayload]("I could not produce the requested output.", "test")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestParseJSON_Empty(t *testing.T) {
	res := ParseJSON[testPayload]("", "test")
	assert.False(t, res.Success)
}
