package workflow

import (
	"fmt"
	"strings"
)

// unknownAgent labels nodes whose blocks carry no agent.
const unknownAgent = "unknown"

// RenderMermaid renders g as a Mermaid flowchart: one declaration per node
// with agent, tokens, cost and success rate, then one edge per dependency.
func RenderMermaid(g *Graph) string {
	var b strings.Builder

	b.WriteString("graph TD\n")

	ids := mermaidIDs(g)
	for _, n := range g.Nodes {
		agent := n.AgentID()
		if agent == "" {
			agent = unknownAgent
		}
		fmt.Fprintf(&b, "    %s[%s<br/>Agent: %s<br/>Tokens: %d<br/>Cost: $%.6f<br/>Success: %.1f%%]\n",
			ids[n.TaskID], n.TaskID, agent, n.TotalTokens(), n.TotalCost(), n.SuccessRate()*100)
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "    %s --> %s\n", ids[e.From], ids[e.To])
	}

	return b.String()
}

// mermaidIDs assigns every node a distinct Mermaid id. Task ids that sanitize
// to the same id get a numeric suffix in node order, e.g. "data_prep_2".
func mermaidIDs(g *Graph) map[string]string {
	ids := make(map[string]string, len(g.Nodes))
	used := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		base := mermaidSafeID(n.TaskID)
		id := base
		for i := 2; used[id]; i++ {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		used[id] = true
		ids[n.TaskID] = id
	}
	return ids
}

// mermaidSafeID replaces characters Mermaid does not accept in node ids.
func mermaidSafeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
