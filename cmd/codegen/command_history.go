package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show past generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newHistoryStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close(cmd.Context())

		limit, err := cmd.Flags().GetInt("n")
		if err != nil {
			return err
		}

		entries, err := store.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
			return nil
		}

		out := cmd.OutOrStdout()

		for i, entry := range entries {
			rec := entry.Record

			header := fmt.Sprintf("%s %s %s",
				numberColor.Render(fmt.Sprintf("%d.", i+1)),
				styleBold.Render(string(rec.Operation)),
				styleFaint.Render(rec.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			)

			fmt.Fprintln(out, header)
			fmt.Fprintln(out, styleFaint.Render(firstLine(rec.Prompt)))
			fmt.Fprintln(out, rec.Output)
			fmt.Fprintln(out)
		}

		return nil
	},
}

var historyClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newHistoryStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close(cmd.Context())

		if err := store.Erase(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		if err := store.Flush(cmd.Context()); err != nil {
			return fmt.Errorf("failed to flush history store: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")

		return nil
	},
}

// firstLine truncates a prompt to its first line for compact listings.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

func init() {
	historyCommand.Flags().Int("n", 10, "number of records to show (0 for all)")

	historyCommand.AddCommand(historyClearCommand)

	rootCmd.AddCommand(historyCommand)
}
