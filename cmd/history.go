package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ailover/larkrelay/internal/storage"
)

func newHistoryCmd() *cobra.Command {
	var flagLimit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports from the local journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := storage.OpenJournalFromEnv()
			if err != nil {
				return err
			}
			if journal == nil {
				return fmt.Errorf("$%s is not set, no journal available", storage.EnvJournalPath)
			}
			defer journal.Close()

			records, err := journal.Recent(flagLimit)
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Printf("%s  %-12s %-8s %s\n",
					rec.CreatedAt.Format(time.RFC3339), rec.Kind, rec.Status, rec.TargetURL)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of journal rows to print")

	return cmd
}
