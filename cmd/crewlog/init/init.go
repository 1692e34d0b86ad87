// Package initcmder provides the init command for initializing a local
// .crewlog directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crewlog/pkg/config"
	"github.com/papercomputeco/crewlog/pkg/dotdir"
)

const configFile = "config.toml"

// remoteTimeout bounds fetching a --preset URL.
const remoteTimeout = 10 * time.Second

const initLongDesc string = `Initialize a new .crewlog/ directory in the current working directory.

Creates a local .crewlog/ directory that takes precedence over the default
~/.crewlog/ directory for configuration and the analysis database, and writes
a config.toml with default values if none exists yet.

Use --preset to start from a named preset or a config.toml served over HTTP.
A preset always overwrites the existing config.toml.

Available presets:
  litellm   Default markers and rates for litellm-backed crews
  crewai    Also points crew.tasks_path and crew.agents_path at the
            config/ layout of a "crewai create crew" project

Examples:
  crewlog init
  crewlog init --preset crewai
  crewlog init --preset https://example.com/crewlog/config.toml`

const initShortDesc string = "Initialize a local .crewlog/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Preset name (%s) or http(s) URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Resolve the preset before touching the filesystem so a bad preset
	// leaves no trace.
	var (
		cfg *config.Config
		err error
	)
	if c.preset != "" {
		cfg, err = resolvePreset(ctx, c.preset)
		if err != nil {
			return err
		}
	}

	dir, err := dotdir.NewManager().LocalDir()
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if !existed {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .crewlog directory: %w", err)
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	switch {
	case cfg != nil:
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s preset to %s\n", c.preset, cfger.GetTarget())

	case !fileExists(filepath.Join(dir, configFile)):
		if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
			return err
		}
	}

	if existed {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	fmt.Fprintf(out, "Initialized .crewlog directory: %s\n", dir)
	return nil
}

func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		return fetchRemote(ctx, preset)
	}
	return config.PresetConfig(preset)
}

func fetchRemote(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing remote config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
