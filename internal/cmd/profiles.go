package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/profiles"
	"github.com/xdg/awsgate/internal/term"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List AWS profiles",
	Long:  `List the profiles in the AWS shared config file, as list_aws_profiles reports them.`,
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return startupError(err)
	}

	lister := &profiles.Lister{Path: cfg.AWS.ConfigFile}
	list, err := lister.List(context.Background())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		term.Println(profiles.Format(nil, lister.ConfigPath()))
		return nil
	}

	rows := make([][]string, len(list))
	for i, p := range list {
		rows[i] = []string{p.Name, dash(p.Region), dash(p.RoleARN)}
	}
	term.Table([]string{"PROFILE", "REGION", "ROLE"}, rows)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
