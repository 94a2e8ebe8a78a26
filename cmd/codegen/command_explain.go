package main

import (
	"time"

	"github.com/picatz/codegen/internal/history"
	"github.com/spf13/cobra"
)

var explainCommand = &cobra.Command{
	Use:     "explain",
	Short:   "Explain code read from stdin",
	Example: "  cat main.go | codegen explain",
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(cmd)
		if err != nil {
			return err
		}

		gen, err := newGenerator()
		if err != nil {
			return err
		}

		start := time.Now()

		output, err := gen.Explain(cmd.Context(), code)
		if err != nil {
			return err
		}

		finishRequest(cmd, gen, history.OpExplain, code, output, start)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCommand)
}
