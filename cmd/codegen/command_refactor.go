package main

import (
	"strings"
	"time"

	"github.com/picatz/codegen/internal/history"
	"github.com/spf13/cobra"
)

var refactorCommand = &cobra.Command{
	Use:   "refactor [goal...]",
	Short: "Refactor code read from stdin",
	Example: strings.Join([]string{
		"  cat main.go | codegen refactor",
		"  cat main.go | codegen refactor reduce allocations in the hot path",
	}, "\n"),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(cmd)
		if err != nil {
			return err
		}

		goal := strings.Join(args, " ")

		gen, err := newGenerator()
		if err != nil {
			return err
		}

		start := time.Now()

		output, err := gen.Refactor(cmd.Context(), code, goal)
		if err != nil {
			return err
		}

		finishRequest(cmd, gen, history.OpRefactor, code, output, start)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(refactorCommand)
}
