// Package cmd implements the CLI commands for awsgate.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/config"
	"github.com/xdg/awsgate/internal/term"
	"github.com/xdg/awsgate/internal/version"
)

// Persistent flags shared by every subcommand.
var (
	configPath string
	silent     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "awsgate",
	Short: "Permission-enforcing AWS CLI broker for MCP clients",
	Long: `awsgate lets an AI agent run AWS CLI commands through two MCP tools:
one for read-only commands and one for commands that change resources.

Every command is classified against a catalogue of read-only prefixes. A
command sent to the wrong tool is refused, and write commands can be held for
operator approval before anything runs.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		term.SetSilent(silent)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/awsgate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "suppress normal output; warnings and errors are still printed")
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the file named by --config, or the default location.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// resolvedConfigPath is the file loadConfig reads.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
