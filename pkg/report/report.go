// Package report aggregates call blocks into grouped performance rows.
//
// Reports are plain values. Rendering them as tables, JSON or markdown is left
// to the caller.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

// TotalKey is the key of the synthetic totals row.
const TotalKey = "TOTAL"

// ToolCount is one entry of a tool usage histogram.
type ToolCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Row is the aggregate of one group of blocks.
type Row struct {
	Key       string   `json:"key"`
	FirstStep int      `json:"first_step"`
	Models    []string `json:"models"`

	Blocks       int `json:"blocks"`
	FinalAnswers int `json:"final_answers"`

	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost_usd"`

	// LatencyTotal sums the latencies of the LatencyCount blocks in the group
	// that have one.
	LatencyTotal time.Duration `json:"latency_total_ns"`
	LatencyCount int           `json:"latency_count"`

	Tools    []ToolCount `json:"tools,omitempty"`
	TaskIDs  []string    `json:"task_ids,omitempty"`
	AgentIDs []string    `json:"agent_ids,omitempty"`

	APIErrors     int `json:"api_errors"`
	ParsingErrors int `json:"parsing_errors"`
}

// SuccessRate is the fraction of blocks with a final answer.
func (r Row) SuccessRate() float64 {
	if r.Blocks == 0 {
		return 0
	}
	return float64(r.FinalAnswers) / float64(r.Blocks)
}

// AvgLatency averages latency over the blocks that have one. ok is false when
// no block in the row does.
func (r Row) AvgLatency() (avg time.Duration, ok bool) {
	if r.LatencyCount == 0 {
		return 0, false
	}
	return r.LatencyTotal / time.Duration(r.LatencyCount), true
}

// ModelList joins the row's models, or returns calllog.UnknownModel.
func (r Row) ModelList() string {
	if len(r.Models) == 0 {
		return calllog.UnknownModel
	}
	return strings.Join(r.Models, ", ")
}

// ToolList renders the tool histogram as "name(count)" entries.
func (r Row) ToolList() string {
	parts := make([]string, 0, len(r.Tools))
	for _, t := range r.Tools {
		parts = append(parts, fmt.Sprintf("%s(%d)", t.Name, t.Count))
	}
	return strings.Join(parts, ", ")
}

// Agent returns the first agent seen in the row.
func (r Row) Agent() string {
	if len(r.AgentIDs) == 0 {
		return ""
	}
	return r.AgentIDs[0]
}

// Report is a grouped aggregation with a totals row.
type Report struct {
	Grouping string `json:"grouping"`
	Rows     []Row  `json:"rows"`
	Totals   Row    `json:"totals"`
}

// Aggregate groups blocks with g and sums every group. The totals row is
// accumulated from the same blocks, not from the group rows, so its latency
// average and success rate are computed over raw counts.
func Aggregate(blocks []*calllog.CallBlock, g Grouping, lat Latencies) *Report {
	var builders []*rowBuilder
	byKey := map[string]*rowBuilder{}
	total := newRowBuilder(TotalKey)

	for _, b := range blocks {
		if b == nil {
			continue
		}
		key, ok := g.Key(b)
		if !ok {
			continue
		}

		rb := byKey[key]
		if rb == nil {
			rb = newRowBuilder(key)
			byKey[key] = rb
			builders = append(builders, rb)
		}
		rb.add(b, lat)
		total.add(b, lat)
	}

	rows := make([]Row, 0, len(builders))
	for _, rb := range builders {
		rows = append(rows, rb.build())
	}
	sortRows(rows, g.Order)

	return &Report{
		Grouping: g.Name,
		Rows:     rows,
		Totals:   total.build(),
	}
}

// ToolHistogram counts tool use across all blocks, most used first. Ties keep
// the order in which tools first appeared.
func ToolHistogram(blocks []*calllog.CallBlock) []ToolCount {
	var h histogram
	for _, b := range blocks {
		if b != nil {
			h.add(b.ToolUsed)
		}
	}
	return h.counts()
}

func sortRows(rows []Row, order Order) {
	switch order {
	case OrderKey:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return cmp.Compare(a.Key, b.Key)
		})
	case OrderTokensDesc:
		slices.SortStableFunc(rows, func(a, b Row) int {
			if c := cmp.Compare(b.TotalTokens, a.TotalTokens); c != 0 {
				return c
			}
			return cmp.Compare(a.Key, b.Key)
		})
	default:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return cmp.Compare(a.FirstStep, b.FirstStep)
		})
	}
}

type rowBuilder struct {
	row    Row
	models map[string]bool
	tasks  map[string]bool
	agents map[string]bool
	tools  histogram
}

func newRowBuilder(key string) *rowBuilder {
	return &rowBuilder{
		row:    Row{Key: key},
		models: map[string]bool{},
		tasks:  map[string]bool{},
		agents: map[string]bool{},
	}
}

func (rb *rowBuilder) add(b *calllog.CallBlock, lat Latencies) {
	r := &rb.row

	if r.Blocks == 0 || b.Step() < r.FirstStep {
		r.FirstStep = b.Step()
	}
	r.Blocks++

	if b.HasFinalAnswer() {
		r.FinalAnswers++
	}
	if b.Usage != nil {
		r.PromptTokens += b.Usage.Prompt
		r.CompletionTokens += b.Usage.Completion
		r.TotalTokens += b.Usage.Total
		r.Cost += b.Usage.Cost
	}
	if d, ok := lat[b.Index]; ok {
		r.LatencyTotal += d
		r.LatencyCount++
	}

	r.APIErrors += len(b.APIErrors)
	if b.ParsingError {
		r.ParsingErrors++
	}

	if b.Model != "" && b.Model != calllog.UnknownModel {
		rb.models[b.Model] = true
	}
	if b.TaskID != "" && !rb.tasks[b.TaskID] {
		rb.tasks[b.TaskID] = true
		r.TaskIDs = append(r.TaskIDs, b.TaskID)
	}
	if b.AgentID != "" && !rb.agents[b.AgentID] {
		rb.agents[b.AgentID] = true
		r.AgentIDs = append(r.AgentIDs, b.AgentID)
	}
	rb.tools.add(b.ToolUsed)
}

func (rb *rowBuilder) build() Row {
	r := rb.row
	r.Models = make([]string, 0, len(rb.models))
	for m := range rb.models {
		r.Models = append(r.Models, m)
	}
	slices.Sort(r.Models)
	r.Tools = rb.tools.counts()
	return r
}

// histogram counts names in first-seen order.
type histogram struct {
	order []string
	count map[string]int
}

func (h *histogram) add(name string) {
	if name == "" {
		return
	}
	if h.count == nil {
		h.count = map[string]int{}
	}
	if _, ok := h.count[name]; !ok {
		h.order = append(h.order, name)
	}
	h.count[name]++
}

func (h *histogram) counts() []ToolCount {
	out := make([]ToolCount, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, ToolCount{Name: name, Count: h.count[name]})
	}
	slices.SortStableFunc(out, func(a, b ToolCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}
