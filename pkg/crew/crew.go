// Package crew holds the task and agent definitions of a crew and loads them
// from tasks.yaml / agents.yaml.
package crew

import "slices"

// Task is a declared crew task.
type Task struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	ExpectedOutput string   `json:"expected_output"`
	Agent          string   `json:"agent"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

// Agent is a declared crew agent.
type Agent struct {
	ID              string `json:"id"`
	Role            string `json:"role"`
	Goal            string `json:"goal"`
	Backstory       string `json:"backstory"`
	AllowDelegation bool   `json:"allow_delegation"`
	Verbose         bool   `json:"verbose"`
}

// IssueKind classifies a problem found while loading task dependencies.
type IssueKind string

const (
	IssueSelfReference     IssueKind = "self_reference"
	IssueDuplicate         IssueKind = "duplicate_dependency"
	IssueUnknownDependency IssueKind = "unknown_dependency"
)

// Issue is a dependency problem found while loading tasks. Self references and
// duplicates are dropped from the task; unknown dependencies are kept.
type Issue struct {
	Kind       IssueKind `json:"kind"`
	TaskID     string    `json:"task_id"`
	Dependency string    `json:"dependency"`
}

// Crew is an ordered set of tasks and agents. Declaration order is preserved
// and is the tie-break order for matching.
type Crew struct {
	Tasks  []Task
	Agents []Agent
	Issues []Issue

	tasks  map[string]int
	agents map[string]int
}

// New builds a Crew from tasks and agents in declaration order.
func New(tasks []Task, agents []Agent) *Crew {
	c := &Crew{
		Tasks:  tasks,
		Agents: agents,
		tasks:  make(map[string]int, len(tasks)),
		agents: make(map[string]int, len(agents)),
	}
	for i, t := range tasks {
		c.tasks[t.ID] = i
	}
	for i, a := range agents {
		c.agents[a.ID] = i
	}
	return c
}

// Empty reports whether the crew declares nothing.
func (c *Crew) Empty() bool {
	return c == nil || (len(c.Tasks) == 0 && len(c.Agents) == 0)
}

// Task returns the task with the given id.
func (c *Crew) Task(id string) (Task, bool) {
	if c == nil {
		return Task{}, false
	}
	i, ok := c.tasks[id]
	if !ok {
		return Task{}, false
	}
	return c.Tasks[i], true
}

// Agent returns the agent with the given id.
func (c *Crew) Agent(id string) (Agent, bool) {
	if c == nil {
		return Agent{}, false
	}
	i, ok := c.agents[id]
	if !ok {
		return Agent{}, false
	}
	return c.Agents[i], true
}

// Clone returns a deep copy, so concurrent runs never share definitions.
func (c *Crew) Clone() *Crew {
	if c == nil {
		return New(nil, nil)
	}

	tasks := make([]Task, len(c.Tasks))
	for i, t := range c.Tasks {
		t.Dependencies = slices.Clone(t.Dependencies)
		tasks[i] = t
	}

	clone := New(tasks, slices.Clone(c.Agents))
	clone.Issues = slices.Clone(c.Issues)
	return clone
}
