package crew

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a crew file is not a YAML mapping keyed by id.
var ErrNotMapping = errors.New("crew: top-level YAML must be a mapping keyed by id")

type taskYAML struct {
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	Agent          string   `yaml:"agent"`
	Dependencies   []string `yaml:"dependencies"`
	Context        []string `yaml:"context"`
}

type agentYAML struct {
	Role            string `yaml:"role"`
	Goal            string `yaml:"goal"`
	Backstory       string `yaml:"backstory"`
	AllowDelegation bool   `yaml:"allow_delegation"`
	Verbose         bool   `yaml:"verbose"`
}

// Load reads tasks and agents files. An empty path is skipped, so Load("", "")
// returns an empty crew.
func Load(tasksPath, agentsPath string) (*Crew, error) {
	var (
		tasks  []Task
		issues []Issue
		agents []Agent
	)

	if tasksPath != "" {
		data, err := os.ReadFile(tasksPath)
		if err != nil {
			return nil, fmt.Errorf("crew: read %q: %w", tasksPath, err)
		}
		tasks, issues, err = ParseTasks(data)
		if err != nil {
			return nil, fmt.Errorf("crew: parse %q: %w", tasksPath, err)
		}
	}

	if agentsPath != "" {
		data, err := os.ReadFile(agentsPath)
		if err != nil {
			return nil, fmt.Errorf("crew: read %q: %w", agentsPath, err)
		}
		agents, err = ParseAgents(data)
		if err != nil {
			return nil, fmt.Errorf("crew: parse %q: %w", agentsPath, err)
		}
	}

	c := New(tasks, agents)
	c.Issues = issues
	return c, nil
}

// ParseTasks decodes a tasks.yaml document. Dependencies come from the
// "dependencies" and "context" lists; when a task has neither, they are
// inferred from other task ids quoted ('id') in its description.
func ParseTasks(data []byte) ([]Task, []Issue, error) {
	var (
		ids []string
		raw []taskYAML
	)
	err := decodeMapping(data, func(id string, node *yaml.Node) error {
		var t taskYAML
		if err := node.Decode(&t); err != nil {
			return fmt.Errorf("task %q: %w", id, err)
		}
		ids = append(ids, id)
		raw = append(raw, t)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	declared := make(map[string]bool, len(ids))
	for _, id := range ids {
		declared[id] = true
	}

	var issues []Issue
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		t := raw[i]

		candidates := append(append([]string{}, t.Dependencies...), t.Context...)
		if len(candidates) == 0 {
			candidates = inferDependencies(id, t.Description, ids)
		}

		deps, found := cleanDependencies(id, candidates, declared)
		issues = append(issues, found...)

		tasks[i] = Task{
			ID:             id,
			Description:    t.Description,
			ExpectedOutput: t.ExpectedOutput,
			Agent:          t.Agent,
			Dependencies:   deps,
		}
	}

	return tasks, issues, nil
}

// ParseAgents decodes an agents.yaml document.
func ParseAgents(data []byte) ([]Agent, error) {
	var agents []Agent
	err := decodeMapping(data, func(id string, node *yaml.Node) error {
		var a agentYAML
		if err := node.Decode(&a); err != nil {
			return fmt.Errorf("agent %q: %w", id, err)
		}
		agents = append(agents, Agent{
			ID:              id,
			Role:            a.Role,
			Goal:            a.Goal,
			Backstory:       a.Backstory,
			AllowDelegation: a.AllowDelegation,
			Verbose:         a.Verbose,
		})
		return nil
	})
	return agents, err
}

// decodeMapping walks a top-level mapping in document order.
func decodeMapping(data []byte, fn func(id string, node *yaml.Node) error) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	// An empty document decodes to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return ErrNotMapping
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if err := fn(root.Content[i].Value, root.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// inferDependencies returns the declared ids, other than self, that appear
// single-quoted in the description.
func inferDependencies(self, description string, ids []string) []string {
	var deps []string
	for _, id := range ids {
		if id != self && strings.Contains(description, "'"+id+"'") {
			deps = append(deps, id)
		}
	}
	return deps
}

// cleanDependencies drops self references and duplicates, keeping order, and
// reports every problem it sees.
func cleanDependencies(self string, candidates []string, declared map[string]bool) ([]string, []Issue) {
	var (
		deps   []string
		issues []Issue
	)
	seen := make(map[string]bool, len(candidates))

	for _, dep := range candidates {
		dep = strings.TrimSpace(dep)
		switch {
		case dep == "":
			continue
		case dep == self:
			issues = append(issues, Issue{Kind: IssueSelfReference, TaskID: self, Dependency: dep})
			continue
		case seen[dep]:
			issues = append(issues, Issue{Kind: IssueDuplicate, TaskID: self, Dependency: dep})
			continue
		}

		if !declared[dep] {
			issues = append(issues, Issue{Kind: IssueUnknownDependency, TaskID: self, Dependency: dep})
		}
		seen[dep] = true
		deps = append(deps, dep)
	}

	return deps, issues
}
