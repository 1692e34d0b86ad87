// Package pipeline runs the full analysis of an agent execution log:
// segmentation, field extraction, pricing, task/agent matching and
// diagnostics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/crew"
	"github.com/papercomputeco/crewlog/pkg/extract"
	"github.com/papercomputeco/crewlog/pkg/logger"
	"github.com/papercomputeco/crewlog/pkg/match"
	"github.com/papercomputeco/crewlog/pkg/pricing"
	"github.com/papercomputeco/crewlog/pkg/report"
	"github.com/papercomputeco/crewlog/pkg/workflow"
)

// ErrReadLog is wrapped by Run when the log file cannot be read. It is the
// only failure that aborts a run.
var ErrReadLog = errors.New("read log")

// Result is the outcome of analyzing one log.
type Result struct {
	RunID       string               `json:"run_id"`
	Path        string               `json:"path,omitempty"`
	Blocks      []*calllog.CallBlock `json:"blocks"`
	Overrides   pricing.Overrides    `json:"overrides"`
	Latencies   report.Latencies     `json:"-"`
	Diagnostics report.Diagnostics   `json:"diagnostics"`
	Issues      []crew.Issue         `json:"issues,omitempty"`

	// Crew is the snapshot the blocks were matched against.
	Crew *crew.Crew `json:"-"`
}

// Report aggregates the result's blocks with g.
func (r *Result) Report(g report.Grouping) *report.Report {
	return report.Aggregate(r.Blocks, g, r.Latencies)
}

// Tools returns the tool usage histogram of the run.
func (r *Result) Tools() []report.ToolCount {
	return report.ToolHistogram(r.Blocks)
}

// Graph builds the workflow graph of the run.
func (r *Result) Graph() *workflow.Graph {
	return workflow.Build(r.Blocks, r.Crew)
}

// Analyzer holds the configuration shared by analysis runs. It is safe for
// concurrent use: every run matches against its own copy of the crew.
type Analyzer struct {
	markers     calllog.Markers
	extractor   *extract.Extractor
	calculator  *pricing.Calculator
	crew        *crew.Crew
	filterNoise bool
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMarkers overrides the segmentation markers. Empty fields keep their
// defaults.
func WithMarkers(m calllog.Markers) Option {
	return func(a *Analyzer) {
		a.markers = m
	}
}

// WithCalculator sets the pricing calculator.
func WithCalculator(c *pricing.Calculator) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.calculator = c
		}
	}
}

// WithCrew sets the crew definitions blocks are matched against.
func WithCrew(c *crew.Crew) Option {
	return func(a *Analyzer) {
		a.crew = c
	}
}

// WithFilterNoise strips tool counters and oversized JSON lines before
// segmentation.
func WithFilterNoise(enabled bool) Option {
	return func(a *Analyzer) {
		a.filterNoise = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		markers:    calllog.DefaultMarkers(),
		calculator: pricing.NewCalculator(nil),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.extractor = extract.New(extract.WithLogger(a.logger))
	return a
}

// Run reads and analyzes the log at path.
func (a *Analyzer) Run(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadLog, path, err)
	}

	result := a.Analyze(string(data))
	result.Path = path

	a.logger.Info("analyzed log",
		"path", path,
		"run_id", result.RunID,
		"blocks", result.Diagnostics.Blocks,
		"parsing_errors", result.Diagnostics.ParsingErrors,
	)

	return result, nil
}

// Analyze runs the pipeline over log text already in memory. It never fails;
// anything that cannot be derived is left at its default and counted in the
// diagnostics.
func (a *Analyzer) Analyze(text string) *Result {
	if a.filterNoise {
		text = calllog.FilterNoise(text, a.markers)
	}

	snapshot := a.crew.Clone()

	blocks := calllog.Segment(text, a.markers)
	a.extractor.ExtractAll(blocks)
	overrides := a.calculator.Price(blocks)
	match.New(snapshot, match.WithLogger(a.logger)).Apply(blocks)

	return &Result{
		RunID:       uuid.NewString(),
		Blocks:      blocks,
		Overrides:   overrides,
		Latencies:   report.ComputeLatencies(blocks),
		Diagnostics: report.Diagnose(blocks),
		Issues:      snapshot.Issues,
		Crew:        snapshot,
	}
}
