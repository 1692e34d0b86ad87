package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --tasks
// on both "crewlog analyze" and "crewlog graph").
type Flag struct {
	// Name is the long flag name (e.g. "tasks").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "crew.tasks_path").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagTasks       = "tasks"
	FlagAgents      = "agents"
	FlagGroupBy     = "group-by"
	FlagHintWidth   = "hint-width"
	FlagConcurrency = "concurrency"
	FlagFilterNoise = "filter-noise"
	FlagOutputDir   = "output-dir"
	FlagSQLite      = "sqlite"
	FlagPromptRate  = "prompt-rate"
	FlagCompRate    = "completion-rate"
)

// Flags is the registry shared by every crewlog command.
var Flags = FlagSet{
	FlagTasks: {
		Name:        "tasks",
		Shorthand:   "t",
		ViperKey:    "crew.tasks_path",
		Description: "Path to the crew tasks.yaml",
	},
	FlagAgents: {
		Name:        "agents",
		Shorthand:   "a",
		ViperKey:    "crew.agents_path",
		Description: "Path to the crew agents.yaml",
	},
	FlagGroupBy: {
		Name:        "group-by",
		Shorthand:   "g",
		ViperKey:    "report.group_by",
		Description: "Report grouping: hint, normalized, task or agent",
	},
	FlagHintWidth: {
		Name:        "hint-width",
		ViperKey:    "report.hint_width",
		Description: "Width task hints are truncated to when grouping by hint",
	},
	FlagConcurrency: {
		Name:        "concurrency",
		Shorthand:   "c",
		ViperKey:    "analyze.concurrency",
		Description: "Number of logs analyzed at once",
	},
	FlagFilterNoise: {
		Name:        "filter-noise",
		ViperKey:    "analyze.filter_noise",
		Description: "Drop tool usage counters and oversized JSON lines before parsing",
	},
	FlagOutputDir: {
		Name:        "output-dir",
		Shorthand:   "o",
		ViperKey:    "output.dir",
		Description: "Directory to write per-call input/output transcripts to",
	},
	FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to a SQLite database to export runs to",
	},
	FlagPromptRate: {
		Name:        "prompt-rate",
		ViperKey:    "pricing.prompt_rate",
		Description: "Per-token price of prompt tokens",
	},
	FlagCompRate: {
		Name:        "completion-rate",
		ViperKey:    "pricing.completion_rate",
		Description: "Per-token price of completion tokens",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultFloat(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultsViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaultsViper().GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	return defaultsViper().GetUint(viperKey)
}

func defaultBool(viperKey string) bool {
	return defaultsViper().GetBool(viperKey)
}

func defaultFloat(viperKey string) float64 {
	return defaultsViper().GetFloat64(viperKey)
}
