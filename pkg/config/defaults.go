package config

import (
	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/pricing"
	"github.com/papercomputeco/crewlog/pkg/report"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	markers := calllog.DefaultMarkers()

	return &Config{
		Version: CurrentV,
		Markers: MarkersConfig{
			Request:  markers.Request,
			Response: markers.Response,
			APIError: markers.APIError,
		},
		Pricing: PricingConfig{
			PromptRate:     pricing.DefaultPromptRate,
			CompletionRate: pricing.DefaultCompletionRate,
		},
		Report: ReportConfig{
			GroupBy:   report.GroupHint,
			HintWidth: report.DefaultHintWidth,
		},
		Analyze: AnalyzeConfig{
			Concurrency: pipeline.DefaultConcurrency,
		},
	}
}

// CalllogMarkers converts the markers section for the segmenter.
func (c *Config) CalllogMarkers() calllog.Markers {
	return calllog.Markers{
		Request:  c.Markers.Request,
		Response: c.Markers.Response,
		APIError: c.Markers.APIError,
	}
}

// Calculator builds a cost calculator from the pricing section.
func (c *Config) Calculator() *pricing.Calculator {
	calc := pricing.NewCalculator(c.Pricing.Models)
	if c.Pricing.PromptRate > 0 {
		calc.Base.Prompt = c.Pricing.PromptRate
	}
	if c.Pricing.CompletionRate > 0 {
		calc.Base.Completion = c.Pricing.CompletionRate
	}
	return calc
}
