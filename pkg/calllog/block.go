// Package calllog holds the CallBlock record and the segmenter that cuts raw
// agent execution logs into one block per outgoing LLM request.
package calllog

import "time"

const (
	// UnknownTask is the task hint used when nothing better could be extracted.
	UnknownTask = "Unknown Task"

	// UnknownModel is the model name used when no model assignment was found.
	UnknownModel = "unknown"
)

// UsageSource records which extraction strategy produced a TokenUsage.
type UsageSource string

const (
	UsageFromObject   UsageSource = "object"
	UsageFromFields   UsageSource = "fields"
	UsageFromLineScan UsageSource = "line_scan"
)

// TokenUsage is the token accounting reported by a single LLM call.
type TokenUsage struct {
	Prompt     int     `json:"prompt_tokens"`
	Completion int     `json:"completion_tokens"`
	Total      int     `json:"total_tokens"`
	Cost       float64 `json:"cost_usd"`

	// PromptRate and CompletionRate carry per-token rate overrides found in
	// the usage payload itself (prompt_token_cost / completion_token_cost).
	PromptRate     *float64 `json:"prompt_token_cost,omitempty"`
	CompletionRate *float64 `json:"completion_token_cost,omitempty"`

	Source UsageSource `json:"source,omitempty"`
}

// Complete reports whether all three token counts were found in the text.
// The object and fields strategies only succeed with the full triple; a line
// scan result counts when every field came out non-zero.
func (u *TokenUsage) Complete() bool {
	if u == nil {
		return false
	}
	switch u.Source {
	case UsageFromObject, UsageFromFields:
		return true
	default:
		return u.Prompt > 0 && u.Completion > 0 && u.Total > 0
	}
}

// CallBlock is one request/response exchange cut out of a log.
//
// Blocks are created by Segment, filled in by the extract and match packages,
// and treated as read-only by everything downstream.
type CallBlock struct {
	// Index is the 0-based position of the block in detection order.
	Index int `json:"index"`

	TaskHint     string `json:"task_hint"`
	RequestText  string `json:"request_text"`
	ResponseText string `json:"response_text"`

	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`

	Usage *TokenUsage `json:"usage,omitempty"`
	Model string      `json:"model"`

	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	RawStartTime string     `json:"raw_start_time,omitempty"`

	APIErrors    []string `json:"api_errors,omitempty"`
	ParsingError bool     `json:"parsing_error"`

	TaskID  string `json:"task_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`

	ToolUsed    string         `json:"tool_used,omitempty"`
	ToolInput   map[string]any `json:"tool_input,omitempty"`
	ToolOutput  string         `json:"tool_output,omitempty"`
	ToolSuccess *bool          `json:"tool_success,omitempty"`
}

// Step returns the 1-based step number of the block.
func (b *CallBlock) Step() int {
	return b.Index + 1
}

// HasFinalAnswer reports whether the block produced a non-empty final answer.
func (b *CallBlock) HasFinalAnswer() bool {
	return b.FinalAnswer != ""
}

// Tokens returns the block's total token count, or 0 without usage.
func (b *CallBlock) Tokens() int {
	if b.Usage == nil {
		return 0
	}
	return b.Usage.Total
}

// Cost returns the block's priced cost, or 0 without usage.
func (b *CallBlock) Cost() float64 {
	if b.Usage == nil {
		return 0
	}
	return b.Usage.Cost
}
