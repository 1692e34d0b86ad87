// Package extractcmder provides the `crewlog extract` CLI command.
package extractcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crewlog/cmd/crewlog/setup"
	"github.com/papercomputeco/crewlog/pkg/artifact"
	"github.com/papercomputeco/crewlog/pkg/config"
)

const extractLongDesc string = `Extract the request and response of every LLM call in a log.

Each call block is written to the output directory as a pair of files,
NNN_<task_hint>_input.txt and NNN_<task_hint>_output.txt, numbered from 001
in the order the calls appear in the log. Files that cannot be written are
reported and skipped.

Examples:
  crewlog extract run.log transcripts
  crewlog extract run.log transcripts --filter-noise`

const extractShortDesc string = "Write the raw text of every LLM call to a directory"

var extractFlags = []string{config.FlagFilterNoise}

type extractCommander struct {
	filterNoise bool
}

// NewExtractCmd creates the extract cobra command.
func NewExtractCmd() *cobra.Command {
	cmder := &extractCommander{}

	cmd := &cobra.Command{
		Use:   "extract <log> <dir>",
		Short: extractShortDesc,
		Long:  extractLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0], args[1])
		},
	}

	config.AddBoolFlag(cmd, config.Flags, config.FlagFilterNoise, &cmder.filterNoise)

	return cmd
}

func (c *extractCommander) run(cmd *cobra.Command, logPath, dir string) error {
	cfg, err := setup.Config(cmd, extractFlags)
	if err != nil {
		return err
	}

	log, closeLog, err := setup.Logger(cmd, "")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Transcripts only need segmentation and hints, so no crew is loaded.
	result, err := setup.Analyzer(cfg, nil, log).Run(ctx, logPath)
	if err != nil {
		return err
	}

	written := artifact.New(log).Write(dir, result.Blocks)
	fmt.Fprintln(cmd.OutOrStdout(), written.Summary())
	return nil
}
