// Package pricing turns token usage into dollar cost.
package pricing

import (
	"strings"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

const (
	// DefaultPromptRate is the per-token price of prompt tokens.
	DefaultPromptRate = 1.5e-7

	// DefaultCompletionRate is the per-token price of completion tokens.
	DefaultCompletionRate = 6e-7
)

// Rates are per-token prices.
type Rates struct {
	Prompt     float64 `json:"prompt" toml:"prompt"`
	Completion float64 `json:"completion" toml:"completion"`
}

// DefaultRates returns the built-in per-token rates.
func DefaultRates() Rates {
	return Rates{Prompt: DefaultPromptRate, Completion: DefaultCompletionRate}
}

// Table maps normalized model names to per-token rates.
type Table map[string]Rates

// ForModel looks up rates for model, first by normalized name and then by the
// name as given.
func (t Table) ForModel(model string) (Rates, bool) {
	if len(t) == 0 {
		return Rates{}, false
	}

	if r, ok := t[normalizeModel(model)]; ok {
		return r, true
	}
	r, ok := t[model]
	return r, ok
}

// Normalized returns a copy of t keyed by normalized model names.
func (t Table) Normalized() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[normalizeModel(k)] = v
	}
	return out
}

// Cost prices a usage record: prompt*rates.Prompt + completion*rates.Completion.
// A nil usage costs nothing.
func Cost(u *calllog.TokenUsage, rates Rates) float64 {
	if u == nil {
		return 0
	}
	return float64(u.Prompt)*rates.Prompt + float64(u.Completion)*rates.Completion
}

// Overrides are rates found inside the log itself. A nil field means the log
// did not carry that override.
type Overrides struct {
	Prompt     *float64 `json:"prompt,omitempty"`
	Completion *float64 `json:"completion,omitempty"`
}

// ResolveOverrides scans blocks in order. The first block carrying a prompt
// rate fixes the prompt override for the whole batch, likewise for the
// completion rate.
func ResolveOverrides(blocks []*calllog.CallBlock) Overrides {
	var o Overrides
	for _, b := range blocks {
		if b.Usage == nil {
			continue
		}
		if o.Prompt == nil && b.Usage.PromptRate != nil {
			v := *b.Usage.PromptRate
			o.Prompt = &v
		}
		if o.Completion == nil && b.Usage.CompletionRate != nil {
			v := *b.Usage.CompletionRate
			o.Completion = &v
		}
		if o.Prompt != nil && o.Completion != nil {
			break
		}
	}
	return o
}

// Calculator prices blocks. Rates are chosen per token type with in-log
// overrides first, then the model table, then Base.
type Calculator struct {
	Base   Rates
	Models Table
}

// NewCalculator returns a Calculator with default base rates.
func NewCalculator(models Table) *Calculator {
	return &Calculator{Base: DefaultRates(), Models: models.Normalized()}
}

// RatesFor returns the rates applied to a block of the given model under the
// batch overrides o.
func (c *Calculator) RatesFor(model string, o Overrides) Rates {
	rates := c.Base
	if r, ok := c.Models.ForModel(model); ok {
		rates = r
	}
	if o.Prompt != nil {
		rates.Prompt = *o.Prompt
	}
	if o.Completion != nil {
		rates.Completion = *o.Completion
	}
	return rates
}

// Price writes Usage.Cost on every block with usage and returns the batch
// overrides that were applied.
func (c *Calculator) Price(blocks []*calllog.CallBlock) Overrides {
	o := ResolveOverrides(blocks)
	for _, b := range blocks {
		if b.Usage == nil {
			continue
		}
		b.Usage.Cost = Cost(b.Usage, c.RatesFor(b.Model, o))
	}
	return o
}

// normalizeModel lowercases a model name, drops a litellm provider prefix
// ("openai/gpt-4o") and strips trailing release dates.
func normalizeModel(model string) string {
	normalized := strings.ToLower(strings.TrimSpace(model))
	if normalized == "" {
		return normalized
	}

	if idx := strings.LastIndex(normalized, "/"); idx != -1 {
		normalized = normalized[idx+1:]
	}

	// Anthropic-style date suffix: -YYYYMMDD
	if idx := strings.LastIndex(normalized, "-"); idx != -1 {
		suffix := normalized[idx+1:]
		if len(suffix) == 8 && isDigits(suffix) {
			normalized = normalized[:idx]
		}
	}

	return stripISODateSuffix(normalized)
}

// stripISODateSuffix removes a trailing -YYYY-MM-DD from a model name.
func stripISODateSuffix(model string) string {
	if len(model) < 12 {
		return model
	}

	suffix := model[len(model)-11:]
	if suffix[0] != '-' {
		return model
	}
	date := suffix[1:]
	if isDigits(date[0:4]) && date[4] == '-' && isDigits(date[5:7]) && date[7] == '-' && isDigits(date[8:10]) {
		return model[:len(model)-11]
	}
	return model
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
