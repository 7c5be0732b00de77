// Package registry provides the agent-registry semantic-search client and
// the formatter for the available-agents memory block.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/version"
)

// Agent is one semantic-search hit from the registry.
type Agent struct {
	AgentID      string   `json:"agent_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Status       string   `json:"status"`
	Score        float64  `json:"score"`
}

// Client provides HTTP access to the agent-registry search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a registry client. baseURL must have been validated as
// absolute by config loading.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default().With("component", "registry-client"),
	}
}

// Search returns the registry's top matches for query, ordered by
// relevance.
func (c *Client) Search(ctx context.Context, query string, limit int, minScore float64) ([]Agent, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("min_score", strconv.FormatFloat(minScore, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/agents/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.Full())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("agent search returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	agents, err := decodeAgents(raw)
	if err != nil {
		return nil, fmt.Errorf("decode agent search response: %w", err)
	}
	return agents, nil
}

// decodeAgents accepts a bare array or an "agents"/"results" envelope.
func decodeAgents(raw []byte) ([]Agent, error) {
	trimmed := bytes.TrimSpace(raw)
	var agents []Agent
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return agents, json.Unmarshal(trimmed, &agents)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	for _, key := range []string{"agents", "results"} {
		if inner, ok := wrapper[key]; ok {
			return agents, json.Unmarshal(inner, &agents)
		}
	}
	return agents, nil
}

// OverrideHTTPClientForTest replaces the internal HTTP client. For testing only.
func (c *Client) OverrideHTTPClientForTest(httpClient *http.Client) {
	c.httpClient = httpClient
}
