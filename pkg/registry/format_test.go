package registry

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/memory"
)

func TestFormatAgentList(t *testing.T) {
	t.Run("full entry", func(t *testing.T) {
		got := FormatAgentList([]Agent{{
			AgentID:      "agent-x",
			Name:         "Deployer",
			Description:  "rolls out services",
			Capabilities: []string{"deploy", "rollback"},
			Status:       "online",
			Score:        0.913,
		}})

		assert.Contains(t, got, "Available Agents")
		assert.Contains(t, got, "1. Deployer (agent-x) [online] score=0.91")
		assert.Contains(t, got, "Description: rolls out services")
		assert.Contains(t, got, "Capabilities: deploy, rollback")
	})

	t.Run("optional fields omitted", func(t *testing.T) {
		got := FormatAgentList([]Agent{{AgentID: "agent-y", Name: "Bare", Status: "offline"}})
		assert.NotContains(t, got, "Description:")
		assert.NotContains(t, got, "Capabilities:")
	})

	t.Run("empty listing", func(t *testing.T) {
		assert.Equal(t, "No matching agents found in registry.", FormatAgentList(nil))
	})

	t.Run("trailing agents dropped at the byte budget", func(t *testing.T) {
		var agents []Agent
		for i := 0; i < 100; i++ {
			agents = append(agents, Agent{
				AgentID:     fmt.Sprintf("agent-%03d", i),
				Name:        fmt.Sprintf("Agent %03d", i),
				Description: strings.Repeat("does many things ", 10),
				Status:      "online",
			})
		}

		got := FormatAgentList(agents)
		require.LessOrEqual(t, len(got), memory.MaxBlockBytes)
		assert.Contains(t, got, "agent-000", "listing keeps the most relevant agents")
		assert.NotContains(t, got, "agent-099")
	})
}
