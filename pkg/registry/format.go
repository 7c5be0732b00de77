package registry

import (
	"fmt"
	"strings"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/memory"
)

// FormatAgentList renders registry hits as the available-agents memory
// block value. The block is replaced on every webhook, so the listing is
// rebuilt whole each time; trailing agents are dropped when the rendered
// text would exceed the block byte budget.
func FormatAgentList(agents []Agent) string {
	if len(agents) == 0 {
		return "No matching agents found in registry."
	}

	var sb strings.Builder
	sb.WriteString("Available Agents (most relevant to this conversation):\n")
	for i, a := range agents {
		entry := formatAgent(i+1, a)
		if sb.Len()+len(entry) > memory.MaxBlockBytes {
			break
		}
		sb.WriteString(entry)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAgent(rank int, a Agent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%d. %s (%s) [%s] score=%.2f\n", rank, a.Name, a.AgentID, a.Status, a.Score)
	if a.Description != "" {
		fmt.Fprintf(&sb, "   Description: %s\n", a.Description)
	}
	if len(a.Capabilities) > 0 {
		fmt.Fprintf(&sb, "   Capabilities: %s\n", strings.Join(a.Capabilities, ", "))
	}
	return sb.String()
}
