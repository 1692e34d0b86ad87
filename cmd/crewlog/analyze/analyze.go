// Package analyzecmder provides the `crewlog analyze` CLI command.
package analyzecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crewlog/cmd/crewlog/setup"
	"github.com/papercomputeco/crewlog/pkg/artifact"
	"github.com/papercomputeco/crewlog/pkg/cliui"
	"github.com/papercomputeco/crewlog/pkg/config"
	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/report"
	"github.com/papercomputeco/crewlog/pkg/storage"
	"github.com/papercomputeco/crewlog/pkg/storage/sqlite"
)

const analyzeLongDesc string = `Analyze one or more agent execution logs.

Each log is split into LLM call blocks, token usage and cost are extracted,
and blocks are matched against the crew's tasks.yaml and agents.yaml when
they are configured. The report is grouped by task hint by default; use
--group-by task or --group-by agent once crew definitions are available.

Several logs are analyzed in parallel and reported in the order given.

Examples:
  crewlog analyze run.log
  crewlog analyze run.log --tasks config/tasks.yaml --agents config/agents.yaml
  crewlog analyze run.log --output-dir transcripts --sqlite crewlog.db
  crewlog analyze logs/*.log --json
  crewlog analyze run.log --watch`

const analyzeShortDesc string = "Analyze agent execution logs"

// watchDebounce is how long a burst of writes has to settle before the log is
// analyzed again.
const watchDebounce = 300 * time.Millisecond

// ErrWatchOneLog is returned when --watch is given more than one log.
var ErrWatchOneLog = errors.New("--watch takes exactly one log")

var analyzeFlags = []string{
	config.FlagTasks,
	config.FlagAgents,
	config.FlagGroupBy,
	config.FlagHintWidth,
	config.FlagConcurrency,
	config.FlagFilterNoise,
	config.FlagOutputDir,
	config.FlagSQLite,
	config.FlagPromptRate,
	config.FlagCompRate,
}

type analyzeCommander struct {
	flags struct {
		tasks, agents, groupBy, outputDir, sqlitePath string
		hintWidth, concurrency                        uint
		filterNoise                                   bool
		promptRate, completionRate                    float64
	}

	jsonOut bool
	watch   bool
	logFile string

	cfg      *config.Config
	grouping report.Grouping
	logger   *slog.Logger
}

// NewAnalyzeCmd creates the analyze cobra command.
func NewAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze <log>...",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cmder.watch && len(args) != 1 {
				return ErrWatchOneLog
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTasks, &cmder.flags.tasks)
	config.AddStringFlag(cmd, config.Flags, config.FlagAgents, &cmder.flags.agents)
	config.AddStringFlag(cmd, config.Flags, config.FlagGroupBy, &cmder.flags.groupBy)
	config.AddUintFlag(cmd, config.Flags, config.FlagHintWidth, &cmder.flags.hintWidth)
	config.AddUintFlag(cmd, config.Flags, config.FlagConcurrency, &cmder.flags.concurrency)
	config.AddBoolFlag(cmd, config.Flags, config.FlagFilterNoise, &cmder.flags.filterNoise)
	config.AddStringFlag(cmd, config.Flags, config.FlagOutputDir, &cmder.flags.outputDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddFloatFlag(cmd, config.Flags, config.FlagPromptRate, &cmder.flags.promptRate)
	config.AddFloatFlag(cmd, config.Flags, config.FlagCompRate, &cmder.flags.completionRate)

	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the analysis as JSON")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Re-analyze the log whenever it changes")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON log records to this file")

	return cmd
}

func (c *analyzeCommander) run(cmd *cobra.Command, paths []string) error {
	cfg, err := setup.Config(cmd, analyzeFlags)
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.grouping, err = report.GroupingFor(cfg.Report.GroupBy, int(cfg.Report.HintWidth))
	if err != nil {
		return err
	}

	log, closeLog, err := setup.Logger(cmd, c.logFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	c.logger = log

	analyzer := setup.Analyzer(cfg, setup.LoadCrew(cfg, log), log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if c.watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return c.runWatch(ctx, cmd.OutOrStdout(), analyzer, paths[0])
	}

	return c.analyze(ctx, cmd.OutOrStdout(), analyzer, paths)
}

// analyze runs every log, then reports, exports and writes artifacts for the
// ones that succeeded. It fails only when no log could be read.
func (c *analyzeCommander) analyze(ctx context.Context, out io.Writer, analyzer *pipeline.Analyzer, paths []string) error {
	outcomes := analyzer.RunMany(ctx, paths, int(c.cfg.Analyze.Concurrency))

	var (
		results []*pipeline.Result
		errs    []error
	)
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
			continue
		}
		results = append(results, o.Result)
	}
	if len(results) == 0 {
		return errors.Join(errs...)
	}

	if c.cfg.Output.Dir != "" {
		c.writeArtifacts(out, results)
	}

	if c.cfg.Storage.SQLitePath != "" {
		if err := c.export(ctx, out, results); err != nil {
			return err
		}
	}

	if c.jsonOut {
		return writeJSON(out, results, c.grouping)
	}

	styled := setup.Styled(out)
	for _, result := range results {
		renderResult(out, result, c.grouping, styled)
	}
	return nil
}

func (c *analyzeCommander) writeArtifacts(out io.Writer, results []*pipeline.Result) {
	w := artifact.New(c.logger)
	for _, result := range results {
		dir := c.cfg.Output.Dir
		if len(results) > 1 {
			dir = artifactDir(dir, result.Path)
		}
		res := w.Write(dir, result.Blocks)
		if !c.jsonOut {
			fmt.Fprintln(out, res.Summary())
		}
	}
}

func (c *analyzeCommander) export(ctx context.Context, out io.Writer, results []*pipeline.Result) error {
	driver, err := sqlite.NewDriver(c.cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer driver.Close()

	save := func() error { return saveAll(ctx, driver, results) }
	if c.jsonOut {
		return save()
	}
	return cliui.Step(out, "Exporting to "+c.cfg.Storage.SQLitePath, save)
}

func saveAll(ctx context.Context, driver storage.Driver, results []*pipeline.Result) error {
	for _, result := range results {
		if err := driver.SaveRun(ctx, result); err != nil {
			return fmt.Errorf("saving run %s: %w", result.RunID, err)
		}
	}
	return nil
}
