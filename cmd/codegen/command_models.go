package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCommand = &cobra.Command{
	Use:   "models",
	Short: "List model identifiers available to the configured API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		pager := client.Models.ListAutoPaging(cmd.Context())
		for pager.Next() {
			fmt.Fprintln(cmd.OutOrStdout(), pager.Current().ID)
		}
		if err := pager.Err(); err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCommand)
}
