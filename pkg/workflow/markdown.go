package workflow

import (
	"fmt"
	"strings"
)

// Markdown renders a node summary table followed by the dependency list and
// any cycle warning. The output is meant for a terminal markdown renderer.
func Markdown(g *Graph) string {
	var b strings.Builder

	b.WriteString("# Workflow\n\n")
	if len(g.Nodes) == 0 {
		b.WriteString("_No blocks matched a declared task._\n")
		return b.String()
	}

	b.WriteString("| Task | Agent | Blocks | Tokens | Cost | Success |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, n := range g.Nodes {
		agent := n.AgentID()
		if agent == "" {
			agent = unknownAgent
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | $%.6f | %.1f%% |\n",
			n.TaskID, agent, len(n.Blocks), n.TotalTokens(), n.TotalCost(), n.SuccessRate()*100)
	}

	if edges := g.Edges(); len(edges) > 0 {
		b.WriteString("\n## Dependencies\n\n")
		for _, e := range edges {
			fmt.Fprintf(&b, "- `%s` -> `%s`\n", e.From, e.To)
		}
	}

	if cycles := g.Cycles(); len(cycles) > 0 {
		fmt.Fprintf(&b, "\n> **Warning:** dependency cycle involving %s\n", strings.Join(cycles, ", "))
	}

	return b.String()
}
