// Package runscmder provides the `crewlog runs` command for browsing analysis
// runs exported to SQLite.
package runscmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crewlog/cmd/crewlog/setup"
	"github.com/papercomputeco/crewlog/cmd/crewlog/sqlitepath"
	"github.com/papercomputeco/crewlog/pkg/cliui"
	"github.com/papercomputeco/crewlog/pkg/config"
	"github.com/papercomputeco/crewlog/pkg/report"
	"github.com/papercomputeco/crewlog/pkg/storage"
	"github.com/papercomputeco/crewlog/pkg/storage/sqlite"
)

const runsLongDesc string = `List analysis runs stored by "crewlog analyze --sqlite", or show
the call blocks of one run.

The database is taken from --sqlite, storage.sqlite_path in config.toml or
$CREWLOG_SQLITE. Without any of those, crewlog looks for crewlog.db in
$XDG_DATA_HOME/crewlog, ~/.crewlog, ./.crewlog and the working directory.

Examples:
  crewlog runs
  crewlog runs --sqlite crewlog.db
  crewlog runs 0f8c2a8e-5b8d-4d53-9d6e-1b1f3c7f1e0a
  crewlog runs --json`

const runsShortDesc string = "List stored analysis runs"

var runsFlags = []string{config.FlagSQLite}

type runsCommander struct {
	sqlitePath string
	jsonOut    bool
}

// NewRunsCmd creates the runs cobra command.
func NewRunsCmd() *cobra.Command {
	cmder := &runsCommander{}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: runsShortDesc,
		Long:  runsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print runs as JSON")

	return cmd
}

func (c *runsCommander) run(cmd *cobra.Command, args []string) error {
	cfg, err := setup.Config(cmd, runsFlags)
	if err != nil {
		return err
	}

	dbPath, err := sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("opening run database: %w", err)
	}

	driver, err := sqlite.NewDriver(dbPath)
	if err != nil {
		return err
	}
	defer driver.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	styled := setup.Styled(out)
	if len(args) == 0 {
		return c.list(ctx, out, driver, styled)
	}
	return c.show(ctx, out, driver, args[0], styled)
}

func (c *runsCommander) list(ctx context.Context, out io.Writer, driver storage.Driver, styled bool) error {
	runs, err := driver.ListRuns(ctx)
	if err != nil {
		return err
	}

	if c.jsonOut {
		if runs == nil {
			runs = []*storage.Run{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, cliui.DimStyle.Render("No runs stored yet."))
		return nil
	}

	fmt.Fprint(out, cliui.RenderTable(runsTable(runs), styled))
	return nil
}

func (c *runsCommander) show(ctx context.Context, out io.Writer, driver storage.Driver, runID string, styled bool) error {
	run, err := driver.GetRun(ctx, runID)
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("%w (list stored runs with \"crewlog runs\")", err)
		}
		return err
	}

	blocks, err := driver.Blocks(ctx, runID)
	if err != nil {
		return err
	}

	if c.jsonOut {
		return writeJSON(out, struct {
			*storage.Run
			CallBlocks []*storage.Block `json:"call_blocks"`
		}{run, blocks})
	}

	fmt.Fprintf(out, "\n%s  %s\n", cliui.KeyStyle.Render("Run:"), run.ID)
	fmt.Fprintf(out, "%s  %s\n", cliui.KeyStyle.Render("Log:"), run.Path)
	fmt.Fprintf(out, "%s  %s\n\n", cliui.KeyStyle.Render("Analyzed:"), run.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprint(out, cliui.RenderTable(blocksTable(run, blocks), styled))
	return nil
}

func runsTable(runs []*storage.Run) cliui.Table {
	t := cliui.Table{
		Title:   "Stored runs",
		Headers: []string{"Run", "Log", "Analyzed", "Calls", "Finals", "Total Tokens", "Cost", "Parse Errors"},
	}
	for _, r := range runs {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.Path,
			r.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Blocks),
			strconv.Itoa(r.FinalAnswers),
			strconv.Itoa(r.TotalTokens),
			fmt.Sprintf("$%.6f", r.Cost),
			strconv.Itoa(r.ParsingErrors),
		})
	}
	return t
}

func blocksTable(run *storage.Run, blocks []*storage.Block) cliui.Table {
	t := cliui.Table{
		Title:   "Call blocks",
		Headers: []string{"Step", "Task Hint", "Task", "Agent", "Model", "Total", "Cost", "Tool", "Final"},
	}
	for _, b := range blocks {
		final := "no"
		if b.FinalAnswer != "" {
			final = "yes"
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(b.Index + 1),
			b.TaskHint,
			b.TaskID,
			b.AgentID,
			b.Model,
			strconv.Itoa(b.TotalTokens),
			fmt.Sprintf("$%.6f", b.Cost),
			b.ToolUsed,
			final,
		})
	}
	t.TotalRow = []string{
		"", report.TotalKey, "", "", "",
		strconv.Itoa(run.TotalTokens), fmt.Sprintf("$%.6f", run.Cost), "",
		fmt.Sprintf("%d/%d", run.FinalAnswers, run.Blocks),
	}
	return t
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
