// Package setup builds the configuration, logger and analyzer shared by the
// crewlog commands.
package setup

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crewlog/pkg/cliui"
	"github.com/papercomputeco/crewlog/pkg/config"
	"github.com/papercomputeco/crewlog/pkg/crew"
	"github.com/papercomputeco/crewlog/pkg/logger"
	"github.com/papercomputeco/crewlog/pkg/pipeline"
)

// Config resolves the configuration for cmd. Flags named in flagKeys are
// bound from config.Flags, so precedence is flag > env > config file >
// default.
func Config(cmd *cobra.Command, flagKeys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return config.FromViper(v)
}

// Logger returns the command logger. Output goes to the command's stderr,
// colorized when that is a terminal. A non-empty logFile also receives JSON
// records, with caller locations under --debug.
func Logger(cmd *cobra.Command, logFile string) (*slog.Logger, func() error, error) {
	debug, _ := cmd.Flags().GetBool("debug")

	w := cmd.ErrOrStderr()
	console := logger.New(
		logger.WithWriter(w),
		logger.WithDebug(debug),
		logger.WithPretty(cliui.IsTerminal(w)),
	)

	if logFile == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(debug),
	)
	return logger.Multi(console, file), f.Close, nil
}

// LoadCrew loads the crew definition files named by cfg. A failure is logged
// and an empty crew is returned, so blocks simply stay unmatched.
func LoadCrew(cfg *config.Config, log *slog.Logger) *crew.Crew {
	c, err := crew.Load(cfg.Crew.TasksPath, cfg.Crew.AgentsPath)
	if err != nil {
		log.Warn("could not load crew definitions, continuing without them", "error", err)
		return crew.New(nil, nil)
	}

	for _, issue := range c.Issues {
		log.Warn("task dependency issue",
			"kind", issue.Kind,
			"task", issue.TaskID,
			"dependency", issue.Dependency,
		)
	}

	if !c.Empty() {
		log.Debug("loaded crew", "tasks", len(c.Tasks), "agents", len(c.Agents))
	}
	return c
}

// Analyzer builds a pipeline analyzer from cfg.
func Analyzer(cfg *config.Config, c *crew.Crew, log *slog.Logger) *pipeline.Analyzer {
	return pipeline.New(
		pipeline.WithMarkers(cfg.CalllogMarkers()),
		pipeline.WithCalculator(cfg.Calculator()),
		pipeline.WithCrew(c),
		pipeline.WithFilterNoise(cfg.Analyze.FilterNoise),
		pipeline.WithLogger(log),
	)
}

// Styled reports whether output written to w should carry colors.
func Styled(w io.Writer) bool {
	return cliui.IsTerminal(w)
}
