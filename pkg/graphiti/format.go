package graphiti

import "strings"

// emptyContext is returned when a search yields neither nodes nor facts,
// so downstream consumers never see an empty payload.
const emptyContext = "No relevant context found in knowledge graph."

// FormatContext renders nodes and facts as a human-readable context block:
//
//	Relevant Entities from Knowledge Graph:
//	Node: <name>
//	Summary: <summary>
//
//	Fact: <fact text>
//
// The formatter is total: missing optional fields render as the empty
// string. Empty results produce a short explanatory string.
func FormatContext(nodes []Node, facts []Fact) string {
	if len(nodes) == 0 && len(facts) == 0 {
		return emptyContext
	}

	var sb strings.Builder
	sb.WriteString("Relevant Entities from Knowledge Graph:\n")
	for _, n := range nodes {
		sb.WriteString("Node: ")
		sb.WriteString(n.Name)
		sb.WriteString("\nSummary: ")
		sb.WriteString(n.Summary)
		sb.WriteString("\n\n")
	}
	for _, f := range facts {
		sb.WriteString("Fact: ")
		sb.WriteString(f.Fact)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
