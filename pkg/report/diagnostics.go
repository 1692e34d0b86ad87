package report

import (
	"fmt"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

// Diagnostics counts the degradations seen while analyzing a log.
type Diagnostics struct {
	Blocks          int `json:"blocks"`
	FinalAnswers    int `json:"final_answers"`
	ParsingErrors   int `json:"parsing_errors"`
	APIErrors       int `json:"api_errors"`
	MissingUsage    int `json:"missing_usage"`
	UnknownHints    int `json:"unknown_hints"`
	UnknownModels   int `json:"unknown_models"`
	MissingTime     int `json:"missing_time"`
	UnmatchedTasks  int `json:"unmatched_tasks"`
	UnmatchedAgents int `json:"unmatched_agents"`
}

// Diagnose counts parse failures and unmatched fields across blocks.
func Diagnose(blocks []*calllog.CallBlock) Diagnostics {
	var d Diagnostics
	for _, b := range blocks {
		if b == nil {
			continue
		}
		d.Blocks++
		if b.HasFinalAnswer() {
			d.FinalAnswers++
		}
		if b.ParsingError {
			d.ParsingErrors++
		}
		d.APIErrors += len(b.APIErrors)
		if b.Usage == nil {
			d.MissingUsage++
		}
		if b.TaskHint == "" || b.TaskHint == calllog.UnknownTask {
			d.UnknownHints++
		}
		if b.Model == "" || b.Model == calllog.UnknownModel {
			d.UnknownModels++
		}
		if b.StartTime == nil {
			d.MissingTime++
		}
		if b.TaskID == "" {
			d.UnmatchedTasks++
		}
		if b.AgentID == "" {
			d.UnmatchedAgents++
		}
	}
	return d
}

// Summary returns a human-readable summary of the diagnostics.
func (d Diagnostics) Summary() string {
	return fmt.Sprintf(
		"Parsed %d blocks: %d final answers, %d parsing errors, %d API errors\n"+
			"Missing: %d usage, %d task hints, %d models, %d timestamps\n"+
			"Unmatched: %d tasks, %d agents",
		d.Blocks, d.FinalAnswers, d.ParsingErrors, d.APIErrors,
		d.MissingUsage, d.UnknownHints, d.UnknownModels, d.MissingTime,
		d.UnmatchedTasks, d.UnmatchedAgents,
	)
}
