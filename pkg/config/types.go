package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/crewlog/pkg/pricing"
)

// Config represents the persistent crewlog configuration stored as config.toml
// in the .crewlog/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Markers MarkersConfig `toml:"markers"`
	Pricing PricingConfig `toml:"pricing"`
	Crew    CrewConfig    `toml:"crew"`
	Report  ReportConfig  `toml:"report"`
	Analyze AnalyzeConfig `toml:"analyze"`
	Output  OutputConfig  `toml:"output"`
	Storage StorageConfig `toml:"storage"`
}

// MarkersConfig holds the substrings that split a log into call blocks.
type MarkersConfig struct {
	Request  string `toml:"request,omitempty"`
	Response string `toml:"response,omitempty"`
	APIError string `toml:"api_error,omitempty"`
}

// PricingConfig holds the base per-token rates and optional per-model rates.
// In-log rate overrides still take precedence over both. A base rate of 0 is
// read as unset and falls back to the default rate; price a free model through
// [pricing.models] instead.
type PricingConfig struct {
	PromptRate     float64       `toml:"prompt_rate,omitempty"`
	CompletionRate float64       `toml:"completion_rate,omitempty"`
	Models         pricing.Table `toml:"models,omitempty"`
}

// CrewConfig points at the crew definition files.
type CrewConfig struct {
	TasksPath  string `toml:"tasks_path,omitempty"`
	AgentsPath string `toml:"agents_path,omitempty"`
}

// ReportConfig holds report grouping settings.
type ReportConfig struct {
	GroupBy   string `toml:"group_by,omitempty"`
	HintWidth uint   `toml:"hint_width,omitempty"`
}

// AnalyzeConfig holds analysis run settings.
type AnalyzeConfig struct {
	Concurrency uint `toml:"concurrency,omitempty"`
	FilterNoise bool `toml:"filter_noise,omitempty"`
}

// OutputConfig holds the transcript artifact directory.
type OutputConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// StorageConfig holds the SQLite export path.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"markers.request": {
		get: func(c *Config) string { return c.Markers.Request },
		set: func(c *Config, v string) error { c.Markers.Request = v; return nil },
	},
	"markers.response": {
		get: func(c *Config) string { return c.Markers.Response },
		set: func(c *Config, v string) error { c.Markers.Response = v; return nil },
	},
	"markers.api_error": {
		get: func(c *Config) string { return c.Markers.APIError },
		set: func(c *Config, v string) error { c.Markers.APIError = v; return nil },
	},
	"pricing.prompt_rate": {
		get: func(c *Config) string { return formatRate(c.Pricing.PromptRate) },
		set: func(c *Config, v string) error {
			return parseRate("pricing.prompt_rate", v, &c.Pricing.PromptRate)
		},
	},
	"pricing.completion_rate": {
		get: func(c *Config) string { return formatRate(c.Pricing.CompletionRate) },
		set: func(c *Config, v string) error {
			return parseRate("pricing.completion_rate", v, &c.Pricing.CompletionRate)
		},
	},
	"crew.tasks_path": {
		get: func(c *Config) string { return c.Crew.TasksPath },
		set: func(c *Config, v string) error { c.Crew.TasksPath = v; return nil },
	},
	"crew.agents_path": {
		get: func(c *Config) string { return c.Crew.AgentsPath },
		set: func(c *Config, v string) error { c.Crew.AgentsPath = v; return nil },
	},
	"report.group_by": {
		get: func(c *Config) string { return c.Report.GroupBy },
		set: func(c *Config, v string) error { c.Report.GroupBy = strings.ToLower(strings.TrimSpace(v)); return nil },
	},
	"report.hint_width": {
		get: func(c *Config) string { return formatUint(c.Report.HintWidth) },
		set: func(c *Config, v string) error {
			return parseUint("report.hint_width", v, &c.Report.HintWidth)
		},
	},
	"analyze.concurrency": {
		get: func(c *Config) string { return formatUint(c.Analyze.Concurrency) },
		set: func(c *Config, v string) error {
			return parseUint("analyze.concurrency", v, &c.Analyze.Concurrency)
		},
	},
	"analyze.filter_noise": {
		get: func(c *Config) string { return strconv.FormatBool(c.Analyze.FilterNoise) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for analyze.filter_noise: %w", err)
			}
			c.Analyze.FilterNoise = b
			return nil
		},
	},
	"output.dir": {
		get: func(c *Config) string { return c.Output.Dir },
		set: func(c *Config, v string) error { c.Output.Dir = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
}

func formatRate(r float64) string {
	if r == 0 {
		return ""
	}
	return strconv.FormatFloat(r, 'g', -1, 64)
}

func parseRate(key, v string, target *float64) error {
	r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if r < 0 {
		return fmt.Errorf("invalid value for %s: %w", key, ErrNegativeRate)
	}
	*target = r
	return nil
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func parseUint(key, v string, target *uint) error {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = uint(n)
	return nil
}
