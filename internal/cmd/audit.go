package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/audit"
	"github.com/xdg/awsgate/internal/term"
)

var auditFlags struct {
	limit   int
	request string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit events",
	Long: `Show recent audit events from the audit database, oldest first.

Use --request to show every event of a single request.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVarP(&auditFlags.limit, "limit", "n", 50, "number of events to show")
	auditCmd.Flags().StringVar(&auditFlags.request, "request", "", "show the events of one request id")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return startupError(err)
	}
	if cfg.Audit.DB == "" {
		return errors.New("audit.db is not configured")
	}
	if _, err := os.Stat(cfg.Audit.DB); errors.Is(err, fs.ErrNotExist) {
		term.Printf("No audit database at %s\n", cfg.Audit.DB)
		return nil
	}

	store, err := audit.OpenStore(cfg.Audit.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := queryAudit(context.Background(), store)
	if err != nil {
		return fmt.Errorf("failed to read audit events: %w", err)
	}
	if len(events) == 0 {
		term.Println("No audit events.")
		return nil
	}
	for _, e := range events {
		term.Println(e.Format())
	}
	return nil
}

func queryAudit(ctx context.Context, store *audit.Store) ([]audit.Event, error) {
	if auditFlags.request != "" {
		return store.ForRequest(ctx, auditFlags.request)
	}
	events, err := store.Recent(ctx, auditFlags.limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}
