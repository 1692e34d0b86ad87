package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/crewlog/pkg/dotdir"
	"github.com/papercomputeco/crewlog/pkg/report"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// ErrNegativeRate is returned when a configured per-token rate is below zero.
var ErrNegativeRate = errors.New("rate must not be negative")

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .crewlog/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in TOML
// section order.
func ValidConfigKeys() []string {
	ordered := []string{
		"markers.request",
		"markers.response",
		"markers.api_error",
		"pricing.prompt_rate",
		"pricing.completion_rate",
		"crew.tasks_path",
		"crew.agents_path",
		"report.group_by",
		"report.hint_width",
		"analyze.concurrency",
		"analyze.filter_noise",
		"output.dir",
		"storage.sqlite_path",
	}

	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .crewlog/
// directory. If the file does not exist, it returns NewDefaultConfig() so
// callers always receive a fully-populated Config. Fields explicitly set in
// the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Markers.Request == "" {
		cfg.Markers.Request = defaults.Markers.Request
	}
	if cfg.Markers.Response == "" {
		cfg.Markers.Response = defaults.Markers.Response
	}
	if cfg.Markers.APIError == "" {
		cfg.Markers.APIError = defaults.Markers.APIError
	}

	if cfg.Pricing.PromptRate == 0 {
		cfg.Pricing.PromptRate = defaults.Pricing.PromptRate
	}
	if cfg.Pricing.CompletionRate == 0 {
		cfg.Pricing.CompletionRate = defaults.Pricing.CompletionRate
	}

	if cfg.Report.GroupBy == "" {
		cfg.Report.GroupBy = defaults.Report.GroupBy
	}
	if cfg.Report.HintWidth == 0 {
		cfg.Report.HintWidth = defaults.Report.HintWidth
	}

	if cfg.Analyze.Concurrency == 0 {
		cfg.Analyze.Concurrency = defaults.Analyze.Concurrency
	}
}

// SaveConfig persists the configuration to config.toml in the target .crewlog/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// Validate checks values that cannot be caught by the TOML decoder.
func (c *Config) Validate() error {
	if c.Report.GroupBy != "" {
		if _, err := report.GroupingFor(c.Report.GroupBy, int(c.Report.HintWidth)); err != nil {
			return fmt.Errorf("invalid value for report.group_by: %w", err)
		}
	}

	if c.Pricing.PromptRate < 0 {
		return fmt.Errorf("invalid value for pricing.prompt_rate: %w", ErrNegativeRate)
	}
	if c.Pricing.CompletionRate < 0 {
		return fmt.Errorf("invalid value for pricing.completion_rate: %w", ErrNegativeRate)
	}
	for _, model := range slices.Sorted(maps.Keys(c.Pricing.Models)) {
		rates := c.Pricing.Models[model]
		if rates.Prompt < 0 || rates.Completion < 0 {
			return fmt.Errorf("invalid rates for pricing.models.%s: %w", model, ErrNegativeRate)
		}
	}
	return nil
}

// PresetConfig returns a Config for a known project layout.
// Supported presets: "litellm", "crewai".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "litellm":
		return NewDefaultConfig(), nil

	case "crewai":
		// Layout generated by "crewai create crew".
		cfg := NewDefaultConfig()
		cfg.Crew.TasksPath = filepath.Join("config", "tasks.yaml")
		cfg.Crew.AgentsPath = filepath.Join("config", "agents.yaml")
		cfg.Report.GroupBy = report.GroupTask
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"litellm", "crewai"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
