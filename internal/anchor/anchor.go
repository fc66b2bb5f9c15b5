// Package anchor publishes report hashes to an external immutable content
// host. Anchoring is best effort: it strengthens auditability when it works
// and never fails a run when it does not.
package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one publish call. The run never blocks on a slow
// host longer than this.
const DefaultTimeout = 15 * time.Second

// Result reports what happened to one publish attempt. Skipped means
// anchoring is not configured, which is a valid state, not a failure.
type Result struct {
	Anchored bool
	Skipped  bool
	Err      error
}

// Publisher sends dated, content-addressed objects to the host. A Publisher
// with no token is permanently in the "anchoring disabled" state.
type Publisher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// New builds a publisher. An empty token disables anchoring.
func New(baseURL, token string) *Publisher {
	return &Publisher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// Enabled reports whether credentials are configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.Token != "" && p.BaseURL != ""
}

// anchorObject is the dated record published to the host: one report hash
// per calendar day at most.
type anchorObject struct {
	Date        string    `json:"date"`
	ReportHash  string    `json:"reportHash"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Publish uploads the report hash under a date key (audits/YYYY-MM-DD.json).
// Every failure path returns a non-anchored Result rather than an error the
// caller must handle; the run is successful either way.
func (p *Publisher) Publish(ctx context.Context, date time.Time, reportHash string) Result {
	if !p.Enabled() {
		return Result{Skipped: true}
	}

	dateKey := date.UTC().Format("2006-01-02")
	payload, err := json.Marshal(anchorObject{
		Date:        dateKey,
		ReportHash:  reportHash,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return Result{Err: fmt.Errorf("marshaling anchor object: %w", err)}
	}

	url := fmt.Sprintf("%s/audits/%s.json", p.BaseURL, dateKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return Result{Err: fmt.Errorf("building anchor request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		slog.Warn("anchor publish failed", "error", err)
		return Result{Err: fmt.Errorf("publishing anchor: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("anchor host rejected publish", "status", resp.StatusCode)
		return Result{Err: fmt.Errorf("anchor host returned status %d", resp.StatusCode)}
	}
	return Result{Anchored: true}
}
