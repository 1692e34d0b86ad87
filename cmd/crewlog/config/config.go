// Package configcmder provides the config command for managing persistent
// crewlog configuration stored in the .crewlog/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent crewlog configuration.

Configuration is stored as config.toml in the .crewlog/ directory and provides
default values for command flags. CLI flags and CREWLOG_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  markers.request, markers.response, markers.api_error,
  pricing.prompt_rate, pricing.completion_rate,
  crew.tasks_path, crew.agents_path,
  report.group_by, report.hint_width,
  analyze.concurrency, analyze.filter_noise,
  output.dir, storage.sqlite_path

Per-model rates live in [pricing.models.<name>] tables and are edited in
config.toml directly.

Use subcommands to get, set, or list configuration values:
  crewlog config set <key> <value>    Set a configuration value
  crewlog config get <key>            Get a configuration value
  crewlog config list                 List all configuration values

Examples:
  crewlog config set crew.tasks_path config/tasks.yaml
  crewlog config set report.group_by task
  crewlog config get pricing.prompt_rate
  crewlog config list`

const configShortDesc string = "Manage persistent crewlog configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
