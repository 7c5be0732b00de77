// Package metrics defines the service's Prometheus collectors on a
// private registry exposed at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every collector the service exports.
var Registry = prometheus.NewRegistry()

var (
	// WebhooksTotal counts processed webhooks by outcome
	// (ok, partial, malformed).
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_receiver_webhooks_total",
			Help: "Total number of webhooks processed by outcome",
		},
		[]string{"outcome"},
	)

	// StepFailuresTotal counts pipeline step failures by step
	// (context, memory_block, agent_discovery, tool_attachment).
	StepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_receiver_step_failures_total",
			Help: "Total number of pipeline step failures by step",
		},
		[]string{"step"},
	)

	// NewAgentsTotal counts first sightings recorded by the agent tracker.
	NewAgentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_receiver_new_agents_total",
			Help: "Total number of agents seen for the first time this process",
		},
	)

	// NotificationsTotal counts chat-bridge notifications by status
	// (delivered, failed, dropped).
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_receiver_notifications_total",
			Help: "Total number of new-agent chat-bridge notifications by status",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		WebhooksTotal, StepFailuresTotal,
		NewAgentsTotal, NotificationsTotal,
	)
}
