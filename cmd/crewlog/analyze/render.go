package analyzecmder

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/cliui"
	"github.com/papercomputeco/crewlog/pkg/crew"
	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/report"
	"github.com/papercomputeco/crewlog/pkg/workflow"
)

// unknown fills agent columns the crew cannot resolve.
const unknown = "Unknown"

// jsonRun is the --json form of one analyzed log.
type jsonRun struct {
	RunID       string             `json:"run_id"`
	Path        string             `json:"path"`
	Report      *report.Report     `json:"report"`
	Tools       []report.ToolCount `json:"tools"`
	Diagnostics report.Diagnostics `json:"diagnostics"`
	Issues      []crew.Issue       `json:"issues,omitempty"`
	Edges       []workflow.Edge    `json:"edges,omitempty"`
	Cycles      []string           `json:"cycles,omitempty"`
}

func writeJSON(out io.Writer, results []*pipeline.Result, g report.Grouping) error {
	runs := make([]jsonRun, 0, len(results))
	for _, r := range results {
		graph := r.Graph()
		runs = append(runs, jsonRun{
			RunID:       r.RunID,
			Path:        r.Path,
			Report:      r.Report(g),
			Tools:       r.Tools(),
			Diagnostics: r.Diagnostics,
			Issues:      r.Issues,
			Edges:       graph.Edges(),
			Cycles:      graph.Cycles(),
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(runs)
}

// renderResult prints the grouped report, the task and agent reports when the
// log matched a crew, the tool histogram and the diagnostics.
func renderResult(out io.Writer, r *pipeline.Result, g report.Grouping, styled bool) {
	title := r.Path
	if title == "" {
		title = r.RunID
	}
	fmt.Fprintf(out, "\n%s  %s\n", cliui.KeyStyle.Render("Log:"), title)
	fmt.Fprintf(out, "%s  %d\n\n", cliui.KeyStyle.Render("LLM calls:"), len(r.Blocks))

	fmt.Fprint(out, cliui.RenderTable(reportTable(r.Report(g), r.Crew), styled))

	if !r.Crew.Empty() && r.Diagnostics.UnmatchedTasks < r.Diagnostics.Blocks {
		for _, extra := range []report.Grouping{report.ByTask(), report.ByAgent()} {
			if extra.Name == g.Name {
				continue
			}
			fmt.Fprint(out, cliui.RenderTable(reportTable(r.Report(extra), r.Crew), styled))
		}
	}

	if tools := r.Tools(); len(tools) > 0 {
		fmt.Fprint(out, cliui.RenderTable(toolsTable(tools), styled))
	}

	if cycles := r.Graph().Cycles(); len(cycles) > 0 {
		fmt.Fprintln(out, cliui.WarnStyle.Render("Task dependency cycle involving "+strings.Join(cycles, ", ")))
	}

	fmt.Fprintln(out, r.Diagnostics.Summary())
}

func reportTable(rep *report.Report, c *crew.Crew) cliui.Table {
	switch rep.Grouping {
	case report.GroupTask:
		return taskTable(rep, c)
	case report.GroupAgent:
		return agentTable(rep, c)
	default:
		return hintTable(rep)
	}
}

func hintTable(rep *report.Report) cliui.Table {
	t := cliui.Table{
		Title: "LLM calls by task hint",
		Headers: []string{
			"Step", "Task Hint", "Models", "Finals", "Prompt", "Completion",
			"Total", "Cost", "Avg Latency", "Tools",
		},
	}
	for _, row := range rep.Rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(row.FirstStep),
			row.Key,
			row.ModelList(),
			finals(row),
			strconv.Itoa(row.PromptTokens),
			strconv.Itoa(row.CompletionTokens),
			strconv.Itoa(row.TotalTokens),
			cost(row.Cost),
			latency(row),
			row.ToolList(),
		})
	}
	tot := rep.Totals
	t.TotalRow = []string{
		"", report.TotalKey, "", finals(tot),
		strconv.Itoa(tot.PromptTokens), strconv.Itoa(tot.CompletionTokens), strconv.Itoa(tot.TotalTokens),
		cost(tot.Cost), latency(tot), "",
	}
	return t
}

func taskTable(rep *report.Report, c *crew.Crew) cliui.Table {
	t := cliui.Table{
		Title: "Task performance",
		Headers: []string{
			"Task", "Agent", "Agent Role", "Prompt", "Completion", "Total",
			"Cost", "Success", "Avg Latency", "Tools",
		},
	}
	for _, row := range rep.Rows {
		agent := row.Agent()
		if agent == "" {
			if task, ok := c.Task(row.Key); ok {
				agent = task.Agent
			}
		}
		t.Rows = append(t.Rows, []string{
			row.Key,
			orUnknown(agent),
			role(c, agent),
			strconv.Itoa(row.PromptTokens),
			strconv.Itoa(row.CompletionTokens),
			strconv.Itoa(row.TotalTokens),
			cost(row.Cost),
			percent(row.SuccessRate()),
			latency(row),
			row.ToolList(),
		})
	}
	tot := rep.Totals
	t.TotalRow = []string{
		report.TotalKey, "", "",
		strconv.Itoa(tot.PromptTokens), strconv.Itoa(tot.CompletionTokens), strconv.Itoa(tot.TotalTokens),
		cost(tot.Cost), percent(tot.SuccessRate()), latency(tot), "",
	}
	return t
}

func agentTable(rep *report.Report, c *crew.Crew) cliui.Table {
	t := cliui.Table{
		Title:   "Agent performance",
		Headers: []string{"Agent", "Role", "Tasks", "Calls", "Total Tokens", "Cost", "Success"},
	}
	for _, row := range rep.Rows {
		t.Rows = append(t.Rows, []string{
			row.Key,
			role(c, row.Key),
			strconv.Itoa(len(row.TaskIDs)),
			strconv.Itoa(row.Blocks),
			strconv.Itoa(row.TotalTokens),
			cost(row.Cost),
			percent(row.SuccessRate()),
		})
	}
	tot := rep.Totals
	t.TotalRow = []string{
		report.TotalKey, "", strconv.Itoa(len(tot.TaskIDs)), strconv.Itoa(tot.Blocks),
		strconv.Itoa(tot.TotalTokens), cost(tot.Cost), percent(tot.SuccessRate()),
	}
	return t
}

func toolsTable(tools []report.ToolCount) cliui.Table {
	t := cliui.Table{
		Title:   "Tool usage",
		Headers: []string{"Tool", "Calls"},
	}
	for _, tc := range tools {
		t.Rows = append(t.Rows, []string{tc.Name, strconv.Itoa(tc.Count)})
	}
	return t
}

func finals(row report.Row) string {
	return fmt.Sprintf("%d/%d", row.FinalAnswers, row.Blocks)
}

func cost(usd float64) string {
	return fmt.Sprintf("$%.6f", usd)
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func latency(row report.Row) string {
	avg, ok := row.AvgLatency()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2fs", avg.Round(10*time.Millisecond).Seconds())
}

func role(c *crew.Crew, agentID string) string {
	if a, ok := c.Agent(agentID); ok && a.Role != "" {
		return strings.TrimSpace(a.Role)
	}
	return unknown
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// artifactDir gives each log of a multi-log run its own transcript folder,
// named after the log file.
func artifactDir(base, logPath string) string {
	name := strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath))
	return filepath.Join(base, calllog.Slug(name))
}
