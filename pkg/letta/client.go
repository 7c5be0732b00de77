// Package letta provides a typed HTTP client for the agent runtime's
// memory-block, agent, and tool APIs.
package letta

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

// listPageSize is the page size used when walking process-wide block
// listings until exhaustion.
const listPageSize = 50

// Client provides HTTP access to the agent runtime.
type Client struct {
	baseURL    string
	password   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an agent-runtime client. baseURL must have been
// validated as absolute by config loading. apiKey may be empty, in which
// case the shared secret doubles as the bearer token.
func NewClient(baseURL, password, apiKey string) *Client {
	if apiKey == "" {
		apiKey = password
	}
	return &Client{
		baseURL:    baseURL,
		password:   password,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default().With("component", "letta-client"),
	}
}

// ListAgentBlocks returns the memory blocks currently attached to agentID.
func (c *Client) ListAgentBlocks(ctx context.Context, agentID string) ([]Block, error) {
	var blocks []Block
	path := "/v1/agents/" + agentID + "/core-memory/blocks"
	if err := c.do(ctx, http.MethodGet, path, agentID, nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ListBlocksByLabel pages through process-wide blocks with the given label
// until exhaustion and returns them in listing order.
func (c *Client) ListBlocksByLabel(ctx context.Context, label string) ([]Block, error) {
	var all []Block
	for offset := 0; ; offset += listPageSize {
		q := url.Values{}
		q.Set("label", label)
		q.Set("limit", strconv.Itoa(listPageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page []Block
		if err := c.do(ctx, http.MethodGet, "/v1/blocks?"+q.Encode(), "", nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
	}
}

// GetBlock fetches a block by id.
func (c *Client) GetBlock(ctx context.Context, blockID string) (Block, error) {
	var block Block
	if err := c.do(ctx, http.MethodGet, "/v1/blocks/"+blockID, "", nil, &block); err != nil {
		return Block{}, err
	}
	return block, nil
}

// CreateBlock creates a new labeled block and returns it with its
// runtime-assigned id.
func (c *Client) CreateBlock(ctx context.Context, label, value string) (Block, error) {
	body := map[string]any{"label": label, "value": value}
	var block Block
	if err := c.do(ctx, http.MethodPost, "/v1/blocks", "", body, &block); err != nil {
		return Block{}, err
	}
	return block, nil
}

// UpdateBlockValue replaces a block's value.
func (c *Client) UpdateBlockValue(ctx context.Context, blockID, value string) error {
	body := map[string]any{"value": value}
	return c.do(ctx, http.MethodPut, "/v1/blocks/"+blockID, "", body, nil)
}

// AttachBlock attaches a block to an agent's core memory.
func (c *Client) AttachBlock(ctx context.Context, agentID, blockID string) error {
	path := "/v1/agents/" + agentID + "/core-memory/blocks/attach/" + blockID
	return c.do(ctx, http.MethodPost, path, agentID, nil, nil)
}

// FindToolID resolves a runtime tool id by name. Returns an empty id when
// no tool matches; callers apply their own fallback.
func (c *Client) FindToolID(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("name", name)

	var tools []Tool
	if err := c.do(ctx, http.MethodGet, "/v1/tools?"+q.Encode(), "", nil, &tools); err != nil {
		return "", err
	}
	for _, t := range tools {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return "", nil
}

// do issues one authenticated request and decodes a JSON response into out
// (when non-nil). Non-2xx responses return an *APIError. actorID, when
// non-empty, is sent as the caller-identity header for calls made on
// behalf of an agent.
func (c *Client) do(ctx context.Context, method, path, actorID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-BARE-PASSWORD", c.password)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", version.Full())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set("user_id", actorID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       string(bytes.TrimSpace(b)),
		}
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := decodeFlexible(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeFlexible tolerates list endpoints that wrap their payload in a
// "blocks"/"tools"/"results" envelope as well as bare arrays/objects.
func decodeFlexible(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err == nil {
		return nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	for _, key := range []string{"blocks", "tools", "results"} {
		if inner, ok := wrapper[key]; ok {
			return json.Unmarshal(inner, out)
		}
	}
	return fmt.Errorf("unexpected response shape")
}

// OverrideHTTPClientForTest replaces the internal HTTP client. For testing only.
func (c *Client) OverrideHTTPClientForTest(httpClient *http.Client) {
	c.httpClient = httpClient
}
