// Package wafclient is the HTTP boundary to the remote detection service.
// It issues classification and snapshot requests and normalizes the service's
// loose response shapes into canonical records exactly once, so nothing
// downstream has to re-check for absent fields.
package wafclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"wafdeck/internal/logging"
)

// DefaultTimeout bounds every request to the detection service.
const DefaultTimeout = 15 * time.Second

// Client talks to the detection service. It holds no cache and never retries;
// a failed call is the caller's to report or repeat.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

// WithHTTPClient swaps the underlying http.Client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpc = h
	}
}

// New creates a client for the detection service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service address.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ClassifyOne classifies a single input via POST /alerts.
func (c *Client) ClassifyOne(ctx context.Context, input string) (Verdict, error) {
	var w wireResult
	if err := c.postJSON(ctx, "classify", "/alerts", classifyRequest{Text: input}, &w); err != nil {
		return Verdict{}, err
	}
	return w.verdict(input), nil
}

// Submit is the live-alerting variant of ClassifyOne: same endpoint, but the
// embedded alert object (when the service includes one) is surfaced so the
// caller can feed the live alert list.
func (c *Client) Submit(ctx context.Context, input string) (Submission, error) {
	var w wireResult
	if err := c.postJSON(ctx, "submit", "/alerts", classifyRequest{Text: input}, &w); err != nil {
		return Submission{}, err
	}
	return Submission{Verdict: w.verdict(input), Alert: w.Alert}, nil
}

// ClassifyBatch classifies inputs via POST /test-batch. The service associates
// each returned verdict with its own echoed input; response order is the
// service's, not the request's, so callers must correlate by value.
func (c *Client) ClassifyBatch(ctx context.Context, inputs []string) ([]Verdict, error) {
	var resp batchResponse
	if err := c.postJSON(ctx, "batch", "/test-batch", batchRequest{URLs: inputs}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, ErrMissingResults
	}
	verdicts := make([]Verdict, 0, len(*resp.Results))
	for _, w := range *resp.Results {
		verdicts = append(verdicts, w.verdict(""))
	}
	logging.Client("batch classify: sent %d inputs, got %d verdicts", len(inputs), len(verdicts))
	return verdicts, nil
}

// =============================================================================
// SNAPSHOT READS
// =============================================================================

// Alerts fetches the live alert feed. A non-array payload is normalized to an
// empty feed rather than reported as an error.
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "alerts", "/alerts", &raw); err != nil {
		return nil, err
	}
	var alerts []Alert
	if err := json.Unmarshal(raw, &alerts); err != nil {
		logging.LivestateWarn("alerts payload is not an array, treating as empty")
		return []Alert{}, nil
	}
	return alerts, nil
}

// Metrics fetches the aggregate counter snapshot.
func (c *Client) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	err := c.getJSON(ctx, "metrics", "/metrics", &m)
	return m, err
}

// Ingestion fetches the pipeline status snapshot.
func (c *Client) Ingestion(ctx context.Context) (Ingestion, error) {
	var ing Ingestion
	err := c.getJSON(ctx, "ingestion", "/ingestion", &ing)
	return ing, err
}

// Model fetches the deployed-model snapshot.
func (c *Client) Model(ctx context.Context) (ModelInfo, error) {
	var mi ModelInfo
	err := c.getJSON(ctx, "model", "/model", &mi)
	return mi, err
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("wafclient: encode %s request: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(body), out)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, out interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &RequestError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	// Client-side correlation id; the service contract does not echo it, it
	// exists so log lines can be tied back to one request.
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	t := logging.StartTimer(logging.CategoryClient, fmt.Sprintf("%s %s [%s]", method, path, reqID))
	resp, err := c.httpc.Do(req)
	t.Stop()
	if err != nil {
		logging.ClientError("%s %s failed: %v", method, url, err)
		return &RequestError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		logging.ClientError("%s %s returned status %d", method, url, resp.StatusCode)
		return &RequestError{Op: op, URL: url, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
