package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/crewlog/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable crewlog reads.
const EnvPrefix = "CREWLOG"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CREWLOG_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CREWLOG_CREW_TASKS_PATH, CREWLOG_REPORT_GROUP_BY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper builds a Config from the resolved viper values. Per-model rates
// are only read from the config file.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Markers: MarkersConfig{
			Request:  v.GetString("markers.request"),
			Response: v.GetString("markers.response"),
			APIError: v.GetString("markers.api_error"),
		},
		Pricing: PricingConfig{
			PromptRate:     v.GetFloat64("pricing.prompt_rate"),
			CompletionRate: v.GetFloat64("pricing.completion_rate"),
		},
		Crew: CrewConfig{
			TasksPath:  v.GetString("crew.tasks_path"),
			AgentsPath: v.GetString("crew.agents_path"),
		},
		Report: ReportConfig{
			GroupBy:   v.GetString("report.group_by"),
			HintWidth: v.GetUint("report.hint_width"),
		},
		Analyze: AnalyzeConfig{
			Concurrency: v.GetUint("analyze.concurrency"),
			FilterNoise: v.GetBool("analyze.filter_noise"),
		},
		Output: OutputConfig{
			Dir: v.GetString("output.dir"),
		},
		Storage: StorageConfig{
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
	}

	if v.IsSet("pricing.models") {
		if err := v.UnmarshalKey("pricing.models", &cfg.Pricing.Models); err != nil {
			return nil, fmt.Errorf("reading pricing.models: %w", err)
		}
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Markers
	v.SetDefault("markers.request", d.Markers.Request)
	v.SetDefault("markers.response", d.Markers.Response)
	v.SetDefault("markers.api_error", d.Markers.APIError)

	// Pricing
	v.SetDefault("pricing.prompt_rate", d.Pricing.PromptRate)
	v.SetDefault("pricing.completion_rate", d.Pricing.CompletionRate)

	// Crew
	v.SetDefault("crew.tasks_path", d.Crew.TasksPath)
	v.SetDefault("crew.agents_path", d.Crew.AgentsPath)

	// Report
	v.SetDefault("report.group_by", d.Report.GroupBy)
	v.SetDefault("report.hint_width", d.Report.HintWidth)

	// Analyze
	v.SetDefault("analyze.concurrency", d.Analyze.Concurrency)
	v.SetDefault("analyze.filter_noise", d.Analyze.FilterNoise)

	// Output and storage
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
}
