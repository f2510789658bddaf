// Package webhook posts lead payloads to the automation endpoint that turns
// them into strategy reports.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bigcity/rewardstrategy/internal/leads"
)

const (
	// SubmissionIDHeader correlates one submission across our logs and the
	// receiver's.
	SubmissionIDHeader = "X-Submission-ID"
	// maxResponseBytes caps how much of the response body is read.
	maxResponseBytes = 64 << 10
	defaultTimeout   = 20 * time.Second
)

// Client wraps interactions with the webhook endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a new client. A non-positive timeout falls back to 20s.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Submit posts payload once. It returns nil for a 2xx answer, a
// *leads.ServerError carrying the status and raw body for any other answer,
// and a *leads.NetworkError when no answer arrived.
func (c *Client) Submit(ctx context.Context, payload leads.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	submissionID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SubmissionIDHeader, submissionID)

	logger := c.logger.With(slog.String("submission_id", submissionID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &leads.NetworkError{Kind: Classify(err), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn("read webhook response", slog.Any("error", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("webhook rejected submission", slog.Int("status", resp.StatusCode))
		return &leads.ServerError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	logger.Debug("webhook accepted submission", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
	return nil
}
