// Package match correlates call blocks with declared crew tasks and agents.
//
// Matching is a best-effort substring heuristic. Candidates are tried in
// declaration order and the first hit wins; callers should not rely on which
// candidate wins when several match.
package match

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/crew"
	"github.com/papercomputeco/crewlog/pkg/logger"
)

// descriptionFragments is how many '.'-separated fragments of a task
// description are compared against the hint.
const descriptionFragments = 2

var (
	actionInputRe = regexp.MustCompile(`(?s)Action Input:\s*(\{.*?\})`)
	observationRe = regexp.MustCompile(`(?s)Observation:\s*(.*?)(?:\n\n|$)`)
)

// Result is the outcome of matching one block.
type Result struct {
	TaskID      string
	AgentID     string
	ToolUsed    string
	ToolInput   map[string]any
	ToolOutput  string
	ToolSuccess *bool
}

// Matcher matches blocks against a crew.
type Matcher struct {
	crew   *crew.Crew
	tasks  []taskMatcher
	logger *slog.Logger
}

type taskMatcher struct {
	id        string
	fragments []string
	expected  string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the matcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Matcher for c. A nil or empty crew never matches a task or
// agent; tool fields are still extracted.
func New(c *crew.Crew, opts ...Option) *Matcher {
	m := &Matcher{crew: c, logger: logger.Nop()}
	for _, opt := range opts {
		opt(m)
	}

	if c != nil {
		m.tasks = make([]taskMatcher, 0, len(c.Tasks))
		for _, t := range c.Tasks {
			m.tasks = append(m.tasks, taskMatcher{
				id:        strings.ToLower(t.ID),
				fragments: leadingFragments(t.Description),
				expected:  strings.ToLower(strings.TrimSpace(t.ExpectedOutput)),
			})
		}
	}

	return m
}

// Match computes the correlation result for b without modifying it.
func (m *Matcher) Match(b *calllog.CallBlock) Result {
	var r Result

	r.TaskID = m.matchTask(b.TaskHint, b.ResponseText)
	r.AgentID = m.matchAgent(b.RequestText)
	r.ToolUsed = ToolName(b.Action)
	r.ToolInput = toolInput(b.RequestText)
	r.ToolOutput = toolOutput(b.ResponseText)
	r.ToolSuccess = toolSuccess(r.ToolOutput, b.ResponseText)

	return r
}

// Apply matches every block and writes the results into it.
func (m *Matcher) Apply(blocks []*calllog.CallBlock) {
	for _, b := range blocks {
		r := m.Match(b)
		b.TaskID = r.TaskID
		b.AgentID = r.AgentID
		b.ToolUsed = r.ToolUsed
		b.ToolInput = r.ToolInput
		b.ToolOutput = r.ToolOutput
		b.ToolSuccess = r.ToolSuccess

		if r.TaskID == "" && len(m.tasks) > 0 {
			m.logger.Debug("no task matched", "block", b.Index, "hint", b.TaskHint)
		}
	}
}

// matchTask first tries the hint against each task id and the leading
// description fragments, then tries each expected output against the response.
func (m *Matcher) matchTask(hint, response string) string {
	if len(m.tasks) == 0 {
		return ""
	}

	hint = strings.ToLower(hint)
	for i, t := range m.tasks {
		if t.id != "" && strings.Contains(hint, t.id) {
			return m.crew.Tasks[i].ID
		}
		for _, frag := range t.fragments {
			if strings.Contains(hint, frag) {
				return m.crew.Tasks[i].ID
			}
		}
	}

	response = strings.ToLower(response)
	for i, t := range m.tasks {
		if t.expected != "" && strings.Contains(response, t.expected) {
			return m.crew.Tasks[i].ID
		}
	}

	return ""
}

func (m *Matcher) matchAgent(request string) string {
	if m.crew == nil || len(m.crew.Agents) == 0 {
		return ""
	}

	request = strings.ToLower(request)
	for _, a := range m.crew.Agents {
		role := strings.ToLower(strings.TrimSpace(a.Role))
		if role != "" && strings.Contains(request, role) {
			return a.ID
		}
	}
	return ""
}

// leadingFragments returns the lowercased, trimmed, non-empty fragments among
// the first two '.'-separated pieces of a description.
func leadingFragments(description string) []string {
	parts := strings.Split(strings.ToLower(description), ".")
	if len(parts) > descriptionFragments {
		parts = parts[:descriptionFragments]
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToolName returns the tool named by an action: the text before the first
// '(' or ':' or a literal "\n" escape, trimmed.
func ToolName(action string) string {
	name := action
	if i := strings.IndexAny(name, "(:"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, `\n`); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// toolInput decodes the object after "Action Input:" up to the first closing
// brace. Nested objects do not decode and are ignored.
func toolInput(request string) map[string]any {
	m := actionInputRe.FindStringSubmatch(request)
	if m == nil {
		return nil
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(m[1]), &input); err != nil {
		return nil
	}
	return input
}

func toolOutput(response string) string {
	m := observationRe.FindStringSubmatch(response)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func toolSuccess(output, response string) *bool {
	switch {
	case output != "" && !strings.Contains(strings.ToLower(output), "error"):
		ok := true
		return &ok
	case strings.Contains(strings.ToLower(response), "error"):
		ok := false
		return &ok
	default:
		return nil
	}
}
