// Package cmd - history command
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shipalloc/adapters/history"
	"shipalloc/internal/config"
)

// historyCmd lists persisted run summaries
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past allocation runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		store, err := history.Open(history.Backend(cfg.History.Backend), cfg.History.Directory)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(context.Background())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tRUN\tSTRATEGY\tPHASE\tITEMS\tSKIPPED\tFINGERPRINT")
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.RunID, rec.Strategy, rec.Phase,
				rec.ItemCount, rec.FailureCount, rec.Fingerprint)
		}
		return tw.Flush()
	},
}
