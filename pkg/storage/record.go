package storage

import (
	"time"

	"github.com/papercomputeco/crewlog/pkg/pipeline"
)

// Run is the stored summary of one analysis run.
type Run struct {
	ID            string    `json:"id"`
	Path          string    `json:"path"`
	CreatedAt     time.Time `json:"created_at"`
	Blocks        int       `json:"blocks"`
	TotalTokens   int       `json:"total_tokens"`
	Cost          float64   `json:"cost_usd"`
	FinalAnswers  int       `json:"final_answers"`
	ParsingErrors int       `json:"parsing_errors"`
}

// Block is the stored form of a call block. Raw request and response text
// are not kept; artifacts cover that.
type Block struct {
	RunID            string     `json:"run_id"`
	Index            int        `json:"index"`
	TaskHint         string     `json:"task_hint"`
	Model            string     `json:"model"`
	TaskID           string     `json:"task_id,omitempty"`
	AgentID          string     `json:"agent_id,omitempty"`
	PromptTokens     int        `json:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens"`
	TotalTokens      int        `json:"total_tokens"`
	Cost             float64    `json:"cost_usd"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	FinalAnswer      string     `json:"final_answer,omitempty"`
	ToolUsed         string     `json:"tool_used,omitempty"`
	APIErrors        int        `json:"api_errors"`
	ParsingError     bool       `json:"parsing_error"`
}

// Records converts a pipeline result into its stored form.
func Records(result *pipeline.Result, now time.Time) (*Run, []*Block) {
	run := &Run{
		ID:            result.RunID,
		Path:          result.Path,
		CreatedAt:     now.UTC(),
		Blocks:        len(result.Blocks),
		FinalAnswers:  result.Diagnostics.FinalAnswers,
		ParsingErrors: result.Diagnostics.ParsingErrors,
	}

	blocks := make([]*Block, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		rec := &Block{
			RunID:        result.RunID,
			Index:        b.Index,
			TaskHint:     b.TaskHint,
			Model:        b.Model,
			TaskID:       b.TaskID,
			AgentID:      b.AgentID,
			FinalAnswer:  b.FinalAnswer,
			ToolUsed:     b.ToolUsed,
			APIErrors:    len(b.APIErrors),
			ParsingError: b.ParsingError,
		}
		if b.StartTime != nil {
			t := b.StartTime.UTC()
			rec.StartTime = &t
		}
		if b.Usage != nil {
			rec.PromptTokens = b.Usage.Prompt
			rec.CompletionTokens = b.Usage.Completion
			rec.TotalTokens = b.Usage.Total
			rec.Cost = b.Usage.Cost
		}

		run.TotalTokens += rec.TotalTokens
		run.Cost += rec.Cost
		blocks = append(blocks, rec)
	}

	return run, blocks
}
