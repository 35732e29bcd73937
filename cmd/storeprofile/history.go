package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/storeprofile/internal/config"
	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [store-url]",
		Short: "List stored profiles",
		Long: `History lists the profiles saved by previous runs.

Without an argument it lists every store in the database. With a store URL
it lists the runs of that store, newest first, with the sources that were
unavailable or skipped.

Examples:
  # List every profiled store
  storeprofile history

  # List the runs of one store
  storeprofile history shop.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listStores(ctx, out, db)
	}
	return listRuns(ctx, out, db, args[0])
}

// listStores prints every store that has at least one stored profile.
func listStores(ctx context.Context, out io.Writer, db *database.ProfileDB) error {
	stores, err := db.ListStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stores: %w", err)
	}

	if len(stores) == 0 {
		fmt.Fprintln(out, "No profiled stores found in the database.")
		fmt.Fprintln(out, "\nUse 'storeprofile profile <store-url>' to profile a store.")
		return nil
	}

	fmt.Fprintf(out, "Profiled stores (%d):\n\n", len(stores))
	for _, store := range stores {
		fmt.Fprintf(out, "  • %s\n", store)
	}
	fmt.Fprintln(out, "\nUse 'storeprofile history <store-url>' to see the runs of a store.")
	return nil
}

// listRuns prints the stored runs of one store.
func listRuns(ctx context.Context, out io.Writer, db *database.ProfileDB, store string) error {
	storeURL := model.NormalizeStoreURL(store)
	runs, err := db.History(ctx, storeURL)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No profile history found for %s\n", storeURL)
		fmt.Fprintln(out, "\nUse 'storeprofile profile' to profile this store.")
		return nil
	}

	fmt.Fprintf(out, "Profile history for %s (%d runs):\n\n", storeURL, len(runs))
	fmt.Fprintf(out, "  %-36s  %-20s  %-8s  %-10s  %s\n", "ID", "Date", "Products", "Mean", "Degraded")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))

	for _, meta := range runs {
		mean := "N/A"
		if meta.PriceMean != nil {
			mean = fmt.Sprintf("%.2f", *meta.PriceMean)
		}
		fmt.Fprintf(out, "  %-36s  %-20s  %-8d  %-10s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.NProducts,
			mean,
			formatDegraded(meta.Sources),
		)
	}

	fmt.Fprintln(out, "\nUse 'storeprofile compare <store-url>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'storeprofile compare --with-id <id> <store-url>' to compare with a specific run.")
	return nil
}

// formatDegraded names the sources of a run that did not succeed.
func formatDegraded(sources []model.SourceResult) string {
	var parts []string
	for _, s := range sources {
		switch {
		case s.Skipped:
			parts = append(parts, s.Source+" (skipped)")
		case !s.OK:
			parts = append(parts, s.Source)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
