// Package toolfinder provides the client for the standalone
// tool-attachment service.
package toolfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/version"
)

const (
	// DefaultLimit is the default number of tools to attach per request.
	DefaultLimit = 3
	// DefaultMinScore is the default relevance floor for attachment.
	DefaultMinScore = 70.0

	// keepAllWildcard tells the service to preserve every currently
	// attached tool. The wildcard is interpreted at the service boundary,
	// never expanded locally.
	keepAllWildcard = "*"

	// fallbackFindToolsID is used when the find-tools utility id cannot
	// be resolved from the agent runtime.
	fallbackFindToolsID = "tool-e2f85051-f943-48c8-b77c-e4c1b1b0d861"
)

// ToolResolver resolves runtime tool ids by name. Satisfied by the
// agent-runtime client.
type ToolResolver interface {
	FindToolID(ctx context.Context, name string) (string, error)
}

// Result reports what the tool-attachment service did.
type Result struct {
	Attached  []string `json:"attached"`
	Preserved []string `json:"preserved"`
}

// Client provides HTTP access to the tool-attachment service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	resolver   ToolResolver
	logger     *slog.Logger

	resolveOnce sync.Once
	findToolsID string
}

// NewClient creates a tool-attachment client. baseURL must have been
// validated as absolute by config loading. resolver may be nil, in which
// case the hard-coded fallback id is used directly.
func NewClient(baseURL string, resolver ToolResolver) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		resolver:   resolver,
		logger:     slog.Default().With("component", "toolfinder-client"),
	}
}

// Attach asks the service to attach the most relevant tools for query to
// agentID, preserving all currently attached tools plus the find-tools
// utility.
func (c *Client) Attach(ctx context.Context, query, agentID string) (Result, error) {
	body := map[string]any{
		"query":             query,
		"agent_id":          agentID,
		"keep_tools":        []string{keepAllWildcard, c.resolveFindToolsID(ctx)},
		"limit":             DefaultLimit,
		"min_score":         DefaultMinScore,
		"request_heartbeat": true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/tools/attach", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.Full())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("tool attach: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("tool attach returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var out struct {
		Attached  []string `json:"attached_tools"`
		Preserved []string `json:"preserved_tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode tool attach response: %w", err)
	}
	return Result{Attached: out.Attached, Preserved: out.Preserved}, nil
}

// resolveFindToolsID resolves the find-tools utility id once per process,
// falling back to the hard-coded id when the runtime lookup fails.
func (c *Client) resolveFindToolsID(ctx context.Context) string {
	c.resolveOnce.Do(func() {
		c.findToolsID = fallbackFindToolsID
		if c.resolver == nil {
			return
		}
		id, err := c.resolver.FindToolID(ctx, "find_tools")
		if err != nil {
			c.logger.Warn("Failed to resolve find_tools id, using fallback", "error", err)
			return
		}
		if id != "" {
			c.findToolsID = id
		}
	})
	return c.findToolsID
}

// OverrideHTTPClientForTest replaces the internal HTTP client. For testing only.
func (c *Client) OverrideHTTPClientForTest(httpClient *http.Client) {
	c.httpClient = httpClient
}
