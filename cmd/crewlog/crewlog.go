// Package crewlogcmder is the root of the crewlog CLI.
package crewlogcmder

import (
	"github.com/spf13/cobra"

	analyzecmder "github.com/papercomputeco/crewlog/cmd/crewlog/analyze"
	configcmder "github.com/papercomputeco/crewlog/cmd/crewlog/config"
	extractcmder "github.com/papercomputeco/crewlog/cmd/crewlog/extract"
	graphcmder "github.com/papercomputeco/crewlog/cmd/crewlog/graph"
	initcmder "github.com/papercomputeco/crewlog/cmd/crewlog/init"
	runscmder "github.com/papercomputeco/crewlog/cmd/crewlog/runs"
	versioncmder "github.com/papercomputeco/crewlog/cmd/version"
)

const crewlogLongDesc string = `crewlog analyzes the execution logs of multi-agent LLM crews.

It splits a log into one block per LLM call, extracts token usage, cost,
model, task hints and tool use, matches blocks to the crew's declared tasks
and agents, and reports per task, per agent and per task hint.

Common commands:
  crewlog analyze run.log      Report usage and cost for a log
  crewlog graph run.log        Render the task workflow
  crewlog extract run.log dir  Save the raw text of every call
  crewlog runs                 Browse runs exported to SQLite`

const crewlogShortDesc string = "crewlog - agent execution log analyzer"

func NewCrewlogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "crewlog",
		Short:        crewlogShortDesc,
		Long:         crewlogLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .crewlog/ config directory")

	// Add subcommands
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())
	cmd.AddCommand(graphcmder.NewGraphCmd())
	cmd.AddCommand(extractcmder.NewExtractCmd())
	cmd.AddCommand(runscmder.NewRunsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
