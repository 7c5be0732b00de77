package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/memory"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/metrics"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/registry"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/toolfinder"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/tracker"
)

// Memory block labels owned by this service.
const (
	GraphitiContextLabel = "graphiti_context"
	AvailableAgentsLabel = "available_agents"
)

// ContextSource generates the formatted knowledge-graph context for a query.
type ContextSource interface {
	GenerateContext(ctx context.Context, query string, maxNodes, maxFacts int) (string, error)
}

// BlockEnsurer maintains labeled memory blocks in the agent runtime.
type BlockEnsurer interface {
	EnsureBlock(ctx context.Context, agentID, label, value string, mode memory.Mode) (memory.EnsureResult, error)
}

// AgentSearcher finds peer agents relevant to a query.
type AgentSearcher interface {
	Search(ctx context.Context, query string, limit int, minScore float64) ([]registry.Agent, error)
}

// ToolAttacher attaches relevant tools to an agent.
type ToolAttacher interface {
	Attach(ctx context.Context, query, agentID string) (toolfinder.Result, error)
}

// NewAgentNotifier schedules a sideband notification for a first-seen
// agent without blocking the caller.
type NewAgentNotifier interface {
	Submit(agentID string)
}

// Limits carries the default per-query bounds; webhook overrides take
// precedence per request.
type Limits struct {
	MaxNodes  int
	MaxFacts  int
	MaxAgents int
	MinScore  float64
}

// Orchestrator drives the five pipeline steps for one webhook. Every step
// contains its own upstream failures; only internal bugs escape Process.
type Orchestrator struct {
	tracker  *tracker.Tracker
	notifier NewAgentNotifier
	context  ContextSource
	blocks   BlockEnsurer
	agents   AgentSearcher // nil when the registry is unconfigured
	tools    ToolAttacher  // nil when the tool service is unconfigured
	limits   Limits
	logger   *slog.Logger
}

// NewOrchestrator wires the pipeline. agents and tools may be nil; the
// corresponding steps report themselves skipped.
func NewOrchestrator(
	tr *tracker.Tracker,
	notifier NewAgentNotifier,
	contextSource ContextSource,
	blocks BlockEnsurer,
	agents AgentSearcher,
	tools ToolAttacher,
	limits Limits,
) *Orchestrator {
	return &Orchestrator{
		tracker:  tr,
		notifier: notifier,
		context:  contextSource,
		blocks:   blocks,
		agents:   agents,
		tools:    tools,
		limits:   limits,
		logger:   slog.Default().With("component", "pipeline"),
	}
}

// Process runs steps 1-5 in order on the calling goroutine: agent
// tracking, context generation, the graphiti memory block, agent
// discovery, and tool attachment. Each step's outcome lands in its own
// subobject of the response.
func (o *Orchestrator) Process(ctx context.Context, ev *Event) *Response {
	query := ev.PromptText()
	agentID := ev.AgentID()

	resp := &Response{Success: true}
	if agentID != "" {
		resp.AgentID = &agentID
		o.trackAgent(agentID)
	}

	o.runContext(ctx, ev, query, agentID, resp)
	o.runDiscovery(ctx, query, agentID, resp)
	o.runTools(ctx, query, agentID, resp)

	resp.Message = summarize(resp)
	if resp.Success {
		metrics.WebhooksTotal.WithLabelValues("ok").Inc()
	} else {
		metrics.WebhooksTotal.WithLabelValues("partial").Inc()
	}
	return resp
}

// trackAgent records the sighting and schedules the sideband notification
// on first sight. The pipeline never waits for delivery.
func (o *Orchestrator) trackAgent(agentID string) {
	if !o.tracker.Observe(agentID) {
		return
	}
	o.logger.Info("New agent seen", "agent_id", agentID)
	metrics.NewAgentsTotal.Inc()
	if o.notifier != nil {
		o.notifier.Submit(agentID)
	}
}

// runContext performs context generation and the graphiti block write.
// Context generation failures yield an error-context payload that still
// flows into the block; only a block failure fails the overall response.
func (o *Orchestrator) runContext(ctx context.Context, ev *Event, query, agentID string, resp *Response) {
	maxNodes := o.limits.MaxNodes
	if ev.MaxNodes != nil && *ev.MaxNodes >= 1 {
		maxNodes = *ev.MaxNodes
	}
	maxFacts := o.limits.MaxFacts
	if ev.MaxFacts != nil && *ev.MaxFacts >= 1 {
		maxFacts = *ev.MaxFacts
	}

	contextText, ctxErr := o.context.GenerateContext(ctx, query, maxNodes, maxFacts)
	if ctxErr != nil {
		metrics.StepFailuresTotal.WithLabelValues("context").Inc()
		resp.Graphiti.Error = ctxErr.Error()
	}
	resp.Graphiti.Context = contextText

	if agentID == "" {
		// No agent to own the block; the generated context is still
		// returned in the response.
		resp.Graphiti.Success = ctxErr == nil
		return
	}

	res, err := o.blocks.EnsureBlock(ctx, agentID, GraphitiContextLabel, contextText, memory.ModeAppend)
	if err != nil {
		o.logger.Error("Memory block update failed", "agent_id", agentID, "error", err)
		metrics.StepFailuresTotal.WithLabelValues("memory_block").Inc()
		resp.Graphiti.Success = false
		resp.Graphiti.Error = err.Error()
		resp.Success = false
		return
	}

	resp.Graphiti.Success = ctxErr == nil
	resp.Graphiti.BlockID = res.BlockID
	resp.Graphiti.BlockName = res.Label
	resp.Graphiti.Updated = res.Updated
	resp.BlockID = &res.BlockID
	label := res.Label
	resp.BlockName = &label
}

// runDiscovery searches the registry and replaces the available-agents
// block. Non-blocking: failures are logged into the response and the
// pipeline continues.
func (o *Orchestrator) runDiscovery(ctx context.Context, query, agentID string, resp *Response) {
	if o.agents == nil {
		resp.AgentDiscovery = DiscoveryResult{Success: true, Skipped: true}
		return
	}

	agents, err := o.agents.Search(ctx, query, o.limits.MaxAgents, o.limits.MinScore)
	if err != nil {
		o.logger.Warn("Agent discovery failed", "error", err)
		metrics.StepFailuresTotal.WithLabelValues("agent_discovery").Inc()
		resp.AgentDiscovery = DiscoveryResult{Error: err.Error()}
		return
	}

	resp.AgentDiscovery = DiscoveryResult{Success: true, Count: len(agents)}
	if agentID == "" {
		return
	}

	listing := registry.FormatAgentList(agents)
	res, err := o.blocks.EnsureBlock(ctx, agentID, AvailableAgentsLabel, listing, memory.ModeReplace)
	if err != nil {
		o.logger.Warn("Available-agents block update failed", "agent_id", agentID, "error", err)
		metrics.StepFailuresTotal.WithLabelValues("agent_discovery").Inc()
		resp.AgentDiscovery.Success = false
		resp.AgentDiscovery.Error = err.Error()
		return
	}
	resp.AgentDiscovery.BlockID = res.BlockID
}

// runTools fires the tool-attachment request. Same failure policy as
// discovery.
func (o *Orchestrator) runTools(ctx context.Context, query, agentID string, resp *Response) {
	if o.tools == nil || agentID == "" {
		resp.ToolAttachment = ToolAttachResult{Success: true, Skipped: true}
		return
	}

	result, err := o.tools.Attach(ctx, query, agentID)
	if err != nil {
		o.logger.Warn("Tool attachment failed", "agent_id", agentID, "error", err)
		metrics.StepFailuresTotal.WithLabelValues("tool_attachment").Inc()
		resp.ToolAttachment = ToolAttachResult{Error: err.Error()}
		return
	}
	resp.ToolAttachment = ToolAttachResult{
		Success:   true,
		Attached:  result.Attached,
		Preserved: result.Preserved,
	}
}

// summarize builds the human-readable per-subsystem outcome line.
func summarize(resp *Response) string {
	var parts []string

	switch {
	case resp.AgentID == nil:
		parts = append(parts, "no agent id, context generated only")
	case !resp.Graphiti.Success && resp.Graphiti.Error != "":
		parts = append(parts, "graphiti context failed: "+resp.Graphiti.Error)
	case resp.Graphiti.Updated:
		parts = append(parts, "graphiti context updated")
	default:
		parts = append(parts, "graphiti context unchanged")
	}

	switch {
	case resp.AgentDiscovery.Skipped:
		parts = append(parts, "agent discovery skipped")
	case resp.AgentDiscovery.Success:
		parts = append(parts, fmt.Sprintf("%d agents discovered", resp.AgentDiscovery.Count))
	default:
		parts = append(parts, "agent discovery failed")
	}

	switch {
	case resp.ToolAttachment.Skipped:
		parts = append(parts, "tool attachment skipped")
	case resp.ToolAttachment.Success:
		parts = append(parts, fmt.Sprintf("%d tools attached", len(resp.ToolAttachment.Attached)))
	default:
		parts = append(parts, "tool attachment failed")
	}

	return strings.Join(parts, "; ")
}
