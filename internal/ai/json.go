package ai

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// Defensive JSON extraction for model responses. Models wrap JSON in code
// fences, prepend prose, or leave trailing commas; a malformed response must
// degrade to "no result", never to a panic or a hard error in the caller.

var (
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	objectRegex        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ParseResult is the outcome of one parse attempt.
type ParseResult[T any] struct {
	Success bool
	Data    T
	Error   string
}

// ParseJSON attempts to decode a model response into T, applying fallback
// strategies in order: direct parse, fence stripping, trailing-comma
// cleanup, then extraction of the outermost JSON object from mixed content.
func ParseJSON[T any](text string, context string) ParseResult[T] {
	candidates := []string{strings.TrimSpace(text)}

	if m := codeFenceRegex.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	for _, c := range candidates {
		candidates = append(candidates, trailingCommaRegex.ReplaceAllString(c, "$1"))
	}
	if m := objectRegex.FindString(text); m != "" {
		candidates = append(candidates, m, trailingCommaRegex.ReplaceAllString(m, "$1"))
	}

	var lastErr error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var data T
		if err := json.Unmarshal([]byte(c), &data); err == nil {
			return ParseResult[T]{Success: true, Data: data}
		} else {
			lastErr = err
		}
	}

	slog.Warn("failed to parse model JSON", "context", context, "error", lastErr)
	result := ParseResult[T]{}
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	return result
}
