package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

var (
	usageObjectRe = regexp.MustCompile(`(?s)"usage":\s*(\{[^}]*"prompt_tokens":[^}]*"completion_tokens":[^}]*"total_tokens":[^}]*\})`)

	promptFieldRe     = regexp.MustCompile(`"prompt_tokens":\s*(\d+)`)
	completionFieldRe = regexp.MustCompile(`"completion_tokens":\s*(\d+)`)
	totalFieldRe      = regexp.MustCompile(`"total_tokens":\s*(\d+)`)

	promptLineRe     = regexp.MustCompile(`"prompt_tokens"[^\d\n]*(\d+)`)
	completionLineRe = regexp.MustCompile(`"completion_tokens"[^\d\n]*(\d+)`)
	totalLineRe      = regexp.MustCompile(`"total_tokens"[^\d\n]*(\d+)`)

	promptRateRe     = regexp.MustCompile(`"prompt_token_cost":\s*([0-9][0-9.eE+-]*)`)
	completionRateRe = regexp.MustCompile(`"completion_token_cost":\s*([0-9][0-9.eE+-]*)`)
)

// usageStrategies run in order; the first non-nil result wins.
var usageStrategies = []func(string) *calllog.TokenUsage{
	usageFromObject,
	usageFromFields,
	usageFromLineScan,
}

// Usage extracts token usage from response text, or nil when no token field
// is present at all. Rate overrides carried in the payload are attached to
// the result.
func Usage(response string) *calllog.TokenUsage {
	for _, fn := range usageStrategies {
		if u := fn(response); u != nil {
			attachRates(u, response)
			return u
		}
	}
	return nil
}

type usageObject struct {
	Prompt     *int     `json:"prompt_tokens"`
	Completion *int     `json:"completion_tokens"`
	Total      *int     `json:"total_tokens"`
	PromptRate *float64 `json:"prompt_token_cost"`
	ComplRate  *float64 `json:"completion_token_cost"`
}

func usageFromObject(text string) *calllog.TokenUsage {
	m := usageObjectRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var obj usageObject
	if err := json.Unmarshal([]byte(m[1]), &obj); err != nil {
		return nil
	}
	if obj.Prompt == nil || obj.Completion == nil || obj.Total == nil {
		return nil
	}

	return &calllog.TokenUsage{
		Prompt:         *obj.Prompt,
		Completion:     *obj.Completion,
		Total:          *obj.Total,
		PromptRate:     obj.PromptRate,
		CompletionRate: obj.ComplRate,
		Source:         calllog.UsageFromObject,
	}
}

func usageFromFields(text string) *calllog.TokenUsage {
	p, pok := firstInt(promptFieldRe, text)
	c, cok := firstInt(completionFieldRe, text)
	t, tok := firstInt(totalFieldRe, text)
	if !pok || !cok || !tok {
		return nil
	}

	return &calllog.TokenUsage{
		Prompt:     p,
		Completion: c,
		Total:      t,
		Source:     calllog.UsageFromFields,
	}
}

// usageFromLineScan walks the text line by line and keeps the first number
// following each token key. A missing total is rebuilt from prompt and
// completion when both are known.
func usageFromLineScan(text string) *calllog.TokenUsage {
	var (
		u                    calllog.TokenUsage
		havePrompt, haveComp bool
		haveTotal            bool
	)

	for line := range strings.SplitSeq(text, "\n") {
		if !havePrompt {
			u.Prompt, havePrompt = firstInt(promptLineRe, line)
		}
		if !haveComp {
			u.Completion, haveComp = firstInt(completionLineRe, line)
		}
		if !haveTotal {
			u.Total, haveTotal = firstInt(totalLineRe, line)
		}
	}

	if u.Prompt == 0 && u.Completion == 0 && u.Total == 0 {
		return nil
	}

	if !haveTotal && havePrompt && haveComp {
		u.Total = u.Prompt + u.Completion
	}

	u.Source = calllog.UsageFromLineScan
	return &u
}

// attachRates fills rate overrides not already set by the object strategy.
func attachRates(u *calllog.TokenUsage, text string) {
	if u.PromptRate == nil {
		u.PromptRate = firstFloat(promptRateRe, text)
	}
	if u.CompletionRate == nil {
		u.CompletionRate = firstFloat(completionRateRe, text)
	}
}

func firstInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}
