// Package pipeline parses inbound webhook events and drives the context
// enrichment steps against the external collaborators.
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// agentIDPrefix is the agent runtime's agent-id convention. Candidate ids
// without it are treated as absent.
const agentIDPrefix = "agent-"

// Event is the inbound webhook payload. Only the documented fields are
// interpreted; unknown event types are accepted and processed identically.
type Event struct {
	Type     string         `json:"type"`
	Prompt   *Prompt        `json:"prompt,omitempty"`
	Response *EventResponse `json:"response,omitempty"`
	Request  *EventRequest  `json:"request,omitempty"`
	MaxNodes *int           `json:"max_nodes,omitempty"`
	MaxFacts *int           `json:"max_facts,omitempty"`
}

// EventResponse carries the runtime's view of the message, including the
// addressed agent.
type EventResponse struct {
	AgentID string `json:"agent_id"`
}

// EventRequest carries the originating HTTP request metadata.
type EventRequest struct {
	Path string `json:"path"`
}

// Segment is one part of a segmented prompt. Only "text" segments
// contribute to the effective prompt.
type Segment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Prompt is the tagged string-or-segments prompt variant. It round-trips
// through JSON in whichever shape it arrived.
type Prompt struct {
	text     string
	segments []Segment
	isList   bool
}

// TextPrompt builds a plain-string prompt.
func TextPrompt(text string) *Prompt {
	return &Prompt{text: text}
}

// SegmentsPrompt builds a segmented prompt.
func SegmentsPrompt(segments []Segment) *Prompt {
	return &Prompt{segments: segments, isList: true}
}

// UnmarshalJSON accepts either a JSON string or an array of segments.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, `"`):
		p.isList = false
		p.segments = nil
		return json.Unmarshal(data, &p.text)
	case strings.HasPrefix(trimmed, "["):
		p.isList = true
		p.text = ""
		return json.Unmarshal(data, &p.segments)
	default:
		return fmt.Errorf("prompt must be a string or a list of segments")
	}
}

// MarshalJSON preserves the original prompt shape.
func (p *Prompt) MarshalJSON() ([]byte, error) {
	if p.isList {
		return json.Marshal(p.segments)
	}
	return json.Marshal(p.text)
}

// Text returns the effective prompt: the raw string, or the text segments
// concatenated with single spaces. A list with zero text segments yields
// the empty prompt.
func (p *Prompt) Text() string {
	if p == nil {
		return ""
	}
	if !p.isList {
		return p.text
	}
	var parts []string
	for _, seg := range p.segments {
		if seg.Type == "text" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}

// PromptText returns the event's effective prompt string.
func (e *Event) PromptText() string {
	return e.Prompt.Text()
}

// HasPrompt reports whether the event carried any prompt source at all.
func (e *Event) HasPrompt() bool {
	return e.Prompt != nil
}

// AgentID resolves the addressed agent: response.agent_id first, then the
// path segment following "/agents/" in request.path. Candidates that do
// not match the runtime's id convention yield the empty string, and
// per-agent steps are skipped.
func (e *Event) AgentID() string {
	if e.Response != nil && validAgentID(e.Response.AgentID) {
		return e.Response.AgentID
	}
	if e.Request != nil {
		if id := agentIDFromPath(e.Request.Path); validAgentID(id) {
			return id
		}
	}
	return ""
}

func validAgentID(id string) bool {
	return strings.HasPrefix(id, agentIDPrefix) && len(id) > len(agentIDPrefix)
}

// agentIDFromPath extracts the segment immediately following "agents" in
// a request path like /v1/agents/agent-xyz/messages.
func agentIDFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "agents" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
