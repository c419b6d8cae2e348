package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/catalogue"
	"github.com/xdg/awsgate/internal/executor"
	"github.com/xdg/awsgate/internal/policy"
	"github.com/xdg/awsgate/internal/term"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <command...>",
	Short: "Show how a command would be classified",
	Long: `Classify an AWS CLI command against the configured catalogue and show the
decision each execution tool would make. Nothing is executed.

Quote the command to keep your shell from interpreting it:

  awsgate classify 'ec2 describe-instances --filters "Name=tag:env,Values=prod"'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return startupError(err)
	}
	cat, err := catalogue.Load(cfg.Catalogue.File, cfg.Catalogue.Extra)
	if err != nil {
		return startupError(err)
	}

	command := strings.Join(args, " ")
	printClassification(cat, command)
	return nil
}

func printClassification(c catalogue.Classifier, command string) {
	match := c.Classify(command)

	term.Printf("Command:        %s\n", catalogue.Normalize(command))
	if match.Entry != "" {
		term.Printf("Classification: %s (entry %q)\n", match.Classification, match.Entry)
	} else {
		term.Printf("Classification: %s (no catalogue entry matched)\n", match.Classification)
	}

	if argv, err := executor.Tokenize(command); err != nil {
		term.Printf("Arguments:      rejected: %v\n", err)
	} else {
		term.Printf("Arguments:      %q\n", argv)
	}

	rows := make([][]string, 0, 2)
	for _, tool := range []struct {
		name   string
		intent policy.Intent
	}{
		{policy.ReadToolName, policy.ReadIntent},
		{policy.WriteToolName, policy.WriteIntent},
	} {
		d := policy.Decide(tool.intent, match.Classification)
		verdict := "allowed"
		if !d.Allowed() {
			verdict = "denied (" + d.Code + ")"
		}
		rows = append(rows, []string{tool.name, verdict})
	}
	term.Println()
	term.Table([]string{"TOOL", "DECISION"}, rows)
}
