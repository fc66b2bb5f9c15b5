package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModel(t *testing.T) {
	t.Setenv("GOVAUDIT_MODEL", "")
	assert.Equal(t, ModelHaiku, DefaultModel())

	t.Setenv("GOVAUDIT_MODEL", ModelSonnet)
	assert.Equal(t, ModelSonnet, DefaultModel())
}

func TestNewClient_NotConfigured(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewClient_ExplicitKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	c, err := NewClient(&Config{APIKey: "sk-test", Model: ModelSonnet})
	require.NoError(t, err)
	assert.Equal(t, ModelSonnet, c.model)
	assert.True(t, c.Available(context.Background()))
}

func TestClient_NilIsUnavailable(t *testing.T) {
	var c *Client
	assert.False(t, c.Available(context.Background()))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(context.DeadlineExceeded))

	tests := []struct {
		msg  string
		want bool
	}{
		{"429 rate limit exceeded", true},
		{"overloaded_error: try again", true},
		{"500 internal server error", true},
		{"401 authentication_error: invalid x-api-key", false},
		{"400 invalid_request_error: prompt too long", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryable(apiError(tt.msg)), tt.msg)
	}
}

type apiError string

func (e apiError) Error() string { return string(e) }
