package matrix

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/metrics"
)

// Notifier delivers new-agent notifications on a small background worker
// pool so the webhook path never waits on the chat bridge.
// Nil-safe: all methods are no-ops when the notifier is nil.
type Notifier struct {
	client   *Client
	jobs     chan string
	wg       sync.WaitGroup
	stopOnce sync.Once
	logger   *slog.Logger
}

// NewNotifier creates a notifier over client. Returns nil when client is
// nil (chat bridge unconfigured), which disables notifications.
func NewNotifier(client *Client, workers int) *Notifier {
	if client == nil {
		return nil
	}
	if workers < 1 {
		workers = 2
	}

	n := &Notifier{
		client: client,
		jobs:   make(chan string, 16),
		logger: slog.Default().With("component", "matrix-notifier"),
	}
	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.run()
	}
	return n
}

// Submit schedules a notification for agentID and returns immediately.
// Notifications are dropped (with a warning) when the queue is full.
func (n *Notifier) Submit(agentID string) {
	if n == nil {
		return
	}
	select {
	case n.jobs <- agentID:
	default:
		n.logger.Warn("Notification queue full, dropping new-agent notification", "agent_id", agentID)
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
	}
}

// Stop drains pending notifications and waits for the workers to exit.
func (n *Notifier) Stop() {
	if n == nil {
		return
	}
	n.stopOnce.Do(func() { close(n.jobs) })
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for agentID := range n.jobs {
		// Each delivery carries its own timeout; failures are logged and
		// counted, never propagated.
		if err := n.client.NotifyNewAgent(context.Background(), agentID); err != nil {
			n.logger.Warn("Failed to deliver new-agent notification", "agent_id", agentID, "error", err)
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			continue
		}
		n.logger.Info("Delivered new-agent notification", "agent_id", agentID)
		metrics.NotificationsTotal.WithLabelValues("delivered").Inc()
	}
}
