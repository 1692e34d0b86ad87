// Package workflow rebuilds the task dependency graph of a crew run from its
// matched call blocks.
package workflow

import (
	"slices"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/crew"
)

// Node is a task that has at least one matched block. Blocks are borrowed from
// the run and never modified.
type Node struct {
	TaskID       string
	Blocks       []*calllog.CallBlock
	Dependencies []string
	Dependents   []string
}

// TotalTokens sums total tokens over the node's blocks.
func (n *Node) TotalTokens() int {
	total := 0
	for _, b := range n.Blocks {
		total += b.Tokens()
	}
	return total
}

// TotalCost sums cost over the node's blocks.
func (n *Node) TotalCost() float64 {
	total := 0.0
	for _, b := range n.Blocks {
		total += b.Cost()
	}
	return total
}

// SuccessRate is the fraction of the node's blocks with a final answer.
func (n *Node) SuccessRate() float64 {
	if len(n.Blocks) == 0 {
		return 0
	}
	finals := 0
	for _, b := range n.Blocks {
		if b.HasFinalAnswer() {
			finals++
		}
	}
	return float64(finals) / float64(len(n.Blocks))
}

// AgentID returns the agent of the first block that carries one.
func (n *Node) AgentID() string {
	for _, b := range n.Blocks {
		if b.AgentID != "" {
			return b.AgentID
		}
	}
	return ""
}

// Edge points from a dependency to the task that depends on it.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the set of instantiated task nodes, in order of first matched
// block.
type Graph struct {
	Nodes []*Node

	index map[string]*Node
}

// Node looks up a node by task id.
func (g *Graph) Node(taskID string) (*Node, bool) {
	n, ok := g.index[taskID]
	return n, ok
}

// Edges lists every dependency edge in node order, then dependency order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			edges = append(edges, Edge{From: dep, To: n.TaskID})
		}
	}
	return edges
}

// Build groups blocks by task id into nodes and links them with the crew's
// declared dependencies. A dependency on a task with no matched blocks is
// dropped, so every edge joins two nodes of the graph. Cycles are kept.
func Build(blocks []*calllog.CallBlock, c *crew.Crew) *Graph {
	g := &Graph{index: map[string]*Node{}}

	for _, b := range blocks {
		if b == nil || b.TaskID == "" {
			continue
		}
		n, ok := g.index[b.TaskID]
		if !ok {
			n = &Node{TaskID: b.TaskID}
			g.index[b.TaskID] = n
			g.Nodes = append(g.Nodes, n)
		}
		n.Blocks = append(n.Blocks, b)
	}

	if c == nil {
		return g
	}

	for _, t := range c.Tasks {
		n, ok := g.index[t.ID]
		if !ok {
			continue
		}
		for _, dep := range t.Dependencies {
			target, ok := g.index[dep]
			if !ok || slices.Contains(n.Dependencies, dep) {
				continue
			}
			n.Dependencies = append(n.Dependencies, dep)
			target.Dependents = append(target.Dependents, t.ID)
		}
	}

	return g
}

// Cycles returns the task ids that sit on, or depend on, a dependency cycle,
// in node order. It runs Kahn's algorithm and reports every node it could not
// retire. An acyclic graph returns nil.
func (g *Graph) Cycles() []string {
	inDegree := make(map[string]int, len(g.Nodes))
	queue := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		inDegree[n.TaskID] = len(n.Dependencies)
		if len(n.Dependencies) == 0 {
			queue = append(queue, n.TaskID)
		}
	}

	retired := make(map[string]bool, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		retired[id] = true
		for _, dependent := range g.index[id].Dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	var stuck []string
	for _, n := range g.Nodes {
		if !retired[n.TaskID] {
			stuck = append(stuck, n.TaskID)
		}
	}
	return stuck
}
