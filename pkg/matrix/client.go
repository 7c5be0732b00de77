// Package matrix provides the chat-bridge client and the background
// notifier for new-agent sightings.
package matrix

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

// notifyTimeout caps each sideband notification; the webhook never waits
// on it either way.
const notifyTimeout = 5 * time.Second

// Client provides HTTP access to the chat-bridge notifier.
type Client struct {
	baseURL    string
	room       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a chat-bridge client. baseURL must have been validated
// as absolute by config loading. room may be empty.
func NewClient(baseURL, room string) *Client {
	return &Client{
		baseURL:    baseURL,
		room:       room,
		httpClient: &http.Client{Timeout: notifyTimeout},
		logger:     slog.Default().With("component", "matrix-client"),
	}
}

// NotifyNewAgent posts a "new agent seen" notification to the bridge.
func (c *Client) NotifyNewAgent(ctx context.Context, agentID string) error {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	body := map[string]any{
		"event":    "new_agent_detected",
		"agent_id": agentID,
	}
	if c.room != "" {
		body["room_id"] = c.room
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.Full())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify chat bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat bridge returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	return nil
}

// OverrideHTTPClientForTest replaces the internal HTTP client. For testing only.
func (c *Client) OverrideHTTPClientForTest(httpClient *http.Client) {
	c.httpClient = httpClient
}
