// Package extract fills in the structured fields of a calllog.CallBlock from
// its raw request and response text.
//
// Every field is produced by an ordered chain of strategies: the first
// strategy that returns a non-empty value wins and later strategies are never
// consulted. Strategies are pure functions of the text they are given, so
// running the extractor twice over the same block is harmless.
package extract

import (
	"log/slog"
	"strings"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/logger"
)

// strategy is one step in an extraction chain.
type strategy struct {
	name string
	fn   func(text string) (string, bool)
}

// chain is an ordered list of strategies.
type chain []strategy

// first runs the chain against text and returns the winning value along with
// the name of the strategy that produced it.
func (c chain) first(text string) (string, string, bool) {
	for _, s := range c {
		if v, ok := s.fn(text); ok {
			return v, s.name, true
		}
	}
	return "", "", false
}

// Extractor runs the extraction chains over call blocks.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for debug output about fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAll runs Extract over every block in order.
func (e *Extractor) ExtractAll(blocks []*calllog.CallBlock) {
	for _, b := range blocks {
		e.Extract(b)
	}
}

// Extract mutates b in place. It never fails: fields that cannot be derived
// keep their defaults. ParsingError is only set when the JSON fallback for
// thought/action/final answer is attempted and the payload does not decode.
func (e *Extractor) Extract(b *calllog.CallBlock) {
	if b == nil {
		return
	}

	b.TaskHint = TaskHint(b.RequestText)
	b.Model = Model(b.RequestText, b.ResponseText)

	if !b.Usage.Complete() {
		if usage := Usage(b.ResponseText); usage != nil {
			b.Usage = usage
		}
	}

	b.ParsingError = false
	ans, err := Answers(b.ResponseText)
	if err != nil {
		e.logger.Debug("json fallback failed",
			"block", b.Index,
			"error", err,
		)
		b.ParsingError = true
	}
	if ans.FromJSON {
		e.logger.Debug("answers recovered from json payload", "block", b.Index)
	}

	b.Thought = ans.Thought
	b.Action = ans.Action
	b.FinalAnswer = ans.FinalAnswer
}

// captured trims a regexp capture and reports whether anything is left.
func captured(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
