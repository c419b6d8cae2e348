package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/catalogue"
	"github.com/xdg/awsgate/internal/term"
)

var catalogueFile string

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Print the read-only catalogue",
	Long: `Print the entries of the read-only catalogue in match order.

By default this is the catalogue serve would use: the built-in table, or
catalogue.file from the config, plus catalogue.extra. With --file, the given
file is loaded and validated instead.`,
	Aliases: []string{"catalog"},
	Args:    cobra.NoArgs,
	RunE:    runCatalogue,
}

func init() {
	catalogueCmd.Flags().StringVar(&catalogueFile, "file", "", "validate and print this catalogue file")
	rootCmd.AddCommand(catalogueCmd)
}

func runCatalogue(cmd *cobra.Command, args []string) error {
	var (
		cat *catalogue.Catalogue
		err error
	)
	if catalogueFile != "" {
		cat, err = catalogue.Load(catalogueFile, nil)
	} else {
		cfg, cfgErr := loadConfig()
		if cfgErr != nil {
			return startupError(cfgErr)
		}
		cat, err = catalogue.Load(cfg.Catalogue.File, cfg.Catalogue.Extra)
	}
	if err != nil {
		return startupError(err)
	}

	entries := cat.Entries()
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{strconv.Itoa(i + 1), e}
	}
	term.Table([]string{"#", "ENTRY"}, rows)
	return nil
}
