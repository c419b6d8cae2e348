package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/config"
	"github.com/xdg/awsgate/internal/prompt"
	"github.com/xdg/awsgate/internal/term"
)

var configInitInteractive bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the awsgate configuration.

The configuration file is stored at ~/.config/awsgate/config.yaml
(or $XDG_CONFIG_HOME/awsgate/config.yaml if XDG_CONFIG_HOME is set).
--config selects a different file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML.

If no config file exists, shows the default configuration.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit config in $EDITOR",
	Long: `Open the configuration file in your editor.

The editor is determined by the EDITOR environment variable, falling back to vi.
If the configuration file doesn't exist, a default one is created first.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file",
	Long: `Create the configuration file if it doesn't exist.

By default this writes a fully-commented file with all default values. With
--interactive, a few questions choose the transport, the approval channel and
whether the command fixer is enabled. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitInteractive, "interactive", "i", false, "answer questions instead of writing the commented defaults")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	term.Print(string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	if _, err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, path)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to edit config: %w", err)
	}

	if _, err := config.Load(path); err != nil {
		term.Warn("config is not valid: %v", err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(resolvedConfigPath())
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()

	var (
		created bool
		err     error
	)
	if configInitInteractive {
		if !prompt.IsTerminal(os.Stdin) {
			return fmt.Errorf("--interactive needs a terminal on stdin")
		}
		var cfg *config.Config
		cfg, err = askConfig(prompt.NewLineAsker(os.Stdin, term.Stdout()), term.Stdout())
		if err != nil {
			return err
		}
		created, err = config.Write(path, cfg)
	} else {
		created, err = config.WriteDefault(path)
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	if !created {
		term.Printf("Config already exists at: %s\n", path)
		return nil
	}
	term.Printf("Created config at: %s\n", path)
	return nil
}

// askConfig builds a configuration from the operator's answers, starting
// from the defaults.
func askConfig(a prompt.Asker, out io.Writer) (*config.Config, error) {
	cfg := config.DefaultConfig()

	transports := []string{config.TransportStdio, config.TransportHTTP}
	idx, err := a.Choose("MCP transport:", transports, 0)
	if err != nil {
		return nil, err
	}
	cfg.Server.Transport = transports[idx]

	cfg.Approval.Required, err = a.YesNo("Hold write commands for operator approval?", false)
	if err != nil {
		return nil, err
	}
	if cfg.Approval.Required {
		channels := []string{config.ChannelTerminal, config.ChannelWeb}
		idx, err := a.Choose("Approval channel:", channels, 0)
		if err != nil {
			return nil, err
		}
		cfg.Approval.Channel = channels[idx]
	}

	fixerOn, err := a.YesNo("Enable fix_aws_command_error (calls Amazon Bedrock)?", cfg.FixerEnabled())
	if err != nil {
		return nil, err
	}
	cfg.Fixer.Enabled = &fixerOn

	_, _ = fmt.Fprintln(out)
	return cfg, nil
}
