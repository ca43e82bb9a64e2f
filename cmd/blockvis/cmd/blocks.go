package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/blockvis/internal/core/blocks"
	"github.com/solatis/blockvis/internal/core/db"
	"github.com/solatis/blockvis/internal/types"
	"github.com/spf13/cobra"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Inspect and migrate stored blocks",
}

var blocksMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the legacy rule sets of one document",
	RunE:  runBlocksMigrate,
}

var blocksHistoryCmd = &cobra.Command{
	Use:   "history BLOCK_ID",
	Short: "Show the migration audit trail of a block",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlocksHistory,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.AddCommand(blocksMigrateCmd, blocksHistoryCmd)

	blocksCmd.PersistentFlags().String("tenant", "", "tenant name")
	_ = blocksCmd.MarkPersistentFlagRequired("tenant")

	blocksMigrateCmd.Flags().String("document", "", "document ID")
	blocksMigrateCmd.Flags().String("mode", "primary", "migration mode (primary, compat)")
	_ = blocksMigrateCmd.MarkFlagRequired("document")
}

// lookupTenant resolves a tenant name without creating it.
func lookupTenant(ctx context.Context, q *db.Queries, name string) (types.TenantID, error) {
	var row struct {
		TenantID  string    `db:"tenant_id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := q.Get(ctx, "get-tenant-by-name", &row, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("unknown tenant %q", name)
		}
		return "", fmt.Errorf("get tenant: %w", err)
	}
	return types.TenantID(row.TenantID), nil
}

func runBlocksMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	tenantName, _ := cmd.Flags().GetString("tenant")
	document, _ := cmd.Flags().GetString("document")
	modeName, _ := cmd.Flags().GetString("mode")

	mode, err := blocks.ParseMode(modeName)
	if err != nil {
		return err
	}

	database, queries, err := openDatabase(ctx, true)
	if err != nil {
		return err
	}
	defer database.Close()

	tenant, err := lookupTenant(ctx, queries, tenantName)
	if err != nil {
		return err
	}

	store := blocks.NewStore(queries, blocks.WithLogger(log))
	report, err := store.MigrateDocument(ctx, tenant, types.DocumentID(document), mode)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d migrated=%d unchanged=%d defaulted=%d conflicts=%d\n",
		report.Scanned, report.Migrated, report.Unchanged, report.Defaulted, report.Conflicts)
	return nil
}

func runBlocksHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	tenantName, _ := cmd.Flags().GetString("tenant")

	database, queries, err := openDatabase(ctx, true)
	if err != nil {
		return err
	}
	defer database.Close()

	tenant, err := lookupTenant(ctx, queries, tenantName)
	if err != nil {
		return err
	}

	records, err := blocks.NewStore(queries).History(ctx, tenant, types.BlockID(args[0]))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range records {
		fmt.Fprintf(out, "%s  %-7s  from_revision=%d", r.MigratedAt.UTC().Format(time.RFC3339), r.Path, r.FromRevision)
		if r.Issues != "" {
			fmt.Fprintf(out, "  issues=%q", r.Issues)
		}
		fmt.Fprintln(out)
	}
	return nil
}
