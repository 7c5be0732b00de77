// Package graphiti provides the knowledge-graph search client and the
// formatter that turns search results into a context block.
package graphiti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/version"
)

// RetryPolicy describes how search calls are retried. The policy is applied
// uniformly inside each call: up to MaxAttempts total attempts with
// exponential backoff (BackoffBase, 2×, 4×, ...) on retryable status codes
// and on connection errors.
type RetryPolicy struct {
	MaxAttempts     int
	BackoffBase     time.Duration
	RetryableStatus map[int]bool
}

// DefaultRetryPolicy returns the standard knowledge-graph retry policy:
// three total attempts, 1s/2s backoff, retrying 429 and common 5xx codes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: 1 * time.Second,
		RetryableStatus: map[int]bool{
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
	}
}

// Node is a knowledge-graph entity returned by node search.
type Node struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Fact is a single relationship/fact returned by fact search.
type Fact struct {
	Fact string `json:"fact"`
}

// Client provides HTTP access to the knowledge-graph search endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	sleep      func(time.Duration) // overridable in tests
	logger     *slog.Logger
}

// NewClient creates a knowledge-graph client for the given base URL.
// baseURL must have been validated as absolute by config loading.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryPolicy(),
		sleep:      time.Sleep,
		logger:     slog.Default().With("component", "graphiti-client"),
	}
}

// SearchNodes runs semantic node search for query, bounded by maxNodes.
func (c *Client) SearchNodes(ctx context.Context, query string, maxNodes int) ([]Node, error) {
	body := map[string]any{
		"query":     query,
		"max_nodes": maxNodes,
		"group_ids": []string{},
	}
	raw, err := c.post(ctx, "/search/nodes", body)
	if err != nil {
		return nil, err
	}
	var nodes []Node
	if err := decodeList(raw, &nodes); err != nil {
		return nil, fmt.Errorf("decode node search response: %w", err)
	}
	if len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}
	return nodes, nil
}

// SearchFacts runs semantic fact search for query, bounded by maxFacts.
// Facts are deduplicated by exact text equality preserving first occurrence.
func (c *Client) SearchFacts(ctx context.Context, query string, maxFacts int) ([]Fact, error) {
	body := map[string]any{
		"query":     query,
		"max_facts": maxFacts,
		"group_ids": []string{},
	}
	raw, err := c.post(ctx, "/search", body)
	if err != nil {
		return nil, err
	}
	var facts []Fact
	if err := decodeList(raw, &facts); err != nil {
		return nil, fmt.Errorf("decode fact search response: %w", err)
	}
	return dedupeFacts(facts, maxFacts), nil
}

// post issues a JSON POST with the configured retry policy. Retries happen
// on connection errors and on the policy's retryable status set; any other
// status is a terminal error.
func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.retry.BackoffBase << (attempt - 1)
			c.logger.Warn("Retrying knowledge-graph request",
				"path", path, "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(backoff)
		}

		raw, retryable, err := c.doOnce(ctx, path, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("knowledge graph unavailable after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, payload []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.Full())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection errors are retryable.
		return nil, true, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("POST %s returned HTTP %d: %s", path, resp.StatusCode, bytes.TrimSpace(b))
		return nil, c.retry.RetryableStatus[resp.StatusCode], err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}
	return raw, false, nil
}

// decodeList accepts either a top-level JSON array or an object with a
// "results" field holding the array.
func decodeList(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapper struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	if len(wrapper.Results) == 0 {
		return nil
	}
	return json.Unmarshal(wrapper.Results, out)
}

func dedupeFacts(facts []Fact, maxFacts int) []Fact {
	seen := make(map[string]bool, len(facts))
	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		if seen[f.Fact] {
			continue
		}
		seen[f.Fact] = true
		out = append(out, f)
		if len(out) == maxFacts {
			break
		}
	}
	return out
}

// OverrideHTTPClientForTest replaces the internal HTTP client and disables
// backoff sleeps. For testing only.
func (c *Client) OverrideHTTPClientForTest(httpClient *http.Client) {
	c.httpClient = httpClient
	c.sleep = func(time.Duration) {}
}
