// Package graphcmder provides the `crewlog graph` command, which renders the
// task workflow of one log.
package graphcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crewlog/cmd/crewlog/setup"
	"github.com/papercomputeco/crewlog/pkg/cliui"
	"github.com/papercomputeco/crewlog/pkg/config"
	"github.com/papercomputeco/crewlog/pkg/workflow"
)

const graphLongDesc string = `Render the task workflow of an agent execution log.

Blocks are matched against the crew's tasks.yaml, one node is drawn per
matched task and the declared task dependencies become edges. Nodes show
the agent, call count, tokens and cost.

Formats:
  mermaid   Mermaid flowchart text (default)
  svg       Graphviz SVG
  png       Graphviz PNG, requires --out

Use --summary for a markdown table of the nodes instead of a diagram.

Examples:
  crewlog graph run.log --tasks config/tasks.yaml
  crewlog graph run.log --format svg --out workflow.svg
  crewlog graph run.log --summary`

const graphShortDesc string = "Render the task workflow of a log"

const formatMermaid = "mermaid"

// ErrNeedOut is returned when a binary format is asked for without --out.
var ErrNeedOut = errors.New("png output needs --out")

var graphFlags = []string{
	config.FlagTasks,
	config.FlagAgents,
	config.FlagFilterNoise,
}

type graphCommander struct {
	flags struct {
		tasks, agents string
		filterNoise   bool
	}

	format  string
	out     string
	summary bool
}

// NewGraphCmd creates the graph cobra command.
func NewGraphCmd() *cobra.Command {
	cmder := &graphCommander{}

	cmd := &cobra.Command{
		Use:   "graph <log>",
		Short: graphShortDesc,
		Long:  graphLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTasks, &cmder.flags.tasks)
	config.AddStringFlag(cmd, config.Flags, config.FlagAgents, &cmder.flags.agents)
	config.AddBoolFlag(cmd, config.Flags, config.FlagFilterNoise, &cmder.flags.filterNoise)

	cmd.Flags().StringVarP(&cmder.format, "format", "f", formatMermaid, "Output format: mermaid, svg or png")
	cmd.Flags().StringVar(&cmder.out, "out", "", "Write the diagram to this file instead of stdout")
	cmd.Flags().BoolVar(&cmder.summary, "summary", false, "Print a markdown summary of the workflow")

	return cmd
}

func (c *graphCommander) run(cmd *cobra.Command, path string) error {
	render, err := c.renderer()
	if err != nil {
		return err
	}

	cfg, err := setup.Config(cmd, graphFlags)
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

	crew := setup.LoadCrew(cfg, log)
	if crew.Empty() {
		log.Warn("no crew definitions configured, the workflow will be empty; pass --tasks")
	}

	result, err := setup.Analyzer(cfg, crew, log).Run(ctx, path)
	if err != nil {
		return err
	}

	graph := result.Graph()
	if cycles := graph.Cycles(); len(cycles) > 0 {
		log.Warn("task dependency cycle", "tasks", strings.Join(cycles, ", "))
	}

	data, err := render(ctx, graph, setup.Styled(cmd.OutOrStdout()) && c.out == "")
	if err != nil {
		return err
	}

	return c.write(cmd.OutOrStdout(), data)
}

type renderFunc func(ctx context.Context, g *workflow.Graph, styled bool) ([]byte, error)

// renderer checks the flags before any work is done and picks the output.
func (c *graphCommander) renderer() (renderFunc, error) {
	if c.summary {
		return renderSummary, nil
	}

	if strings.EqualFold(strings.TrimSpace(c.format), formatMermaid) {
		return func(_ context.Context, g *workflow.Graph, _ bool) ([]byte, error) {
			return []byte(workflow.RenderMermaid(g)), nil
		}, nil
	}

	format, err := workflow.ParseFormat(c.format)
	if err != nil {
		return nil, err
	}
	if format == workflow.FormatPNG && c.out == "" {
		return nil, ErrNeedOut
	}

	return func(ctx context.Context, g *workflow.Graph, _ bool) ([]byte, error) {
		return workflow.RenderImage(ctx, g, format)
	}, nil
}

func renderSummary(_ context.Context, g *workflow.Graph, styled bool) ([]byte, error) {
	md := workflow.Markdown(g)
	if !styled {
		return []byte(md), nil
	}

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		return nil, err
	}
	return []byte(rendered), nil
}

func (c *graphCommander) write(stdout io.Writer, data []byte) error {
	if c.out == "" {
		_, err := stdout.Write(data)
		return err
	}

	if err := os.WriteFile(c.out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.out, err)
	}
	fmt.Fprintf(stdout, "%s Wrote %s\n", cliui.SuccessMark, c.out)
	return nil
}
