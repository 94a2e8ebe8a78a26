package main

import (
	"strings"
	"time"

	"github.com/picatz/codegen/internal/history"
	"github.com/spf13/cobra"
)

var completeCommand = &cobra.Command{
	Use:   "complete [context...]",
	Short: "Complete partial code read from stdin",
	Example: strings.Join([]string{
		"  cat main.go | codegen complete",
		"  cat handler.py | codegen complete finish the request validation",
	}, "\n"),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(cmd)
		if err != nil {
			return err
		}

		contextHint := strings.Join(args, " ")

		gen, err := newGenerator()
		if err != nil {
			return err
		}

		start := time.Now()

		output, err := gen.Complete(cmd.Context(), code, contextHint)
		if err != nil {
			return err
		}

		finishRequest(cmd, gen, history.OpComplete, code, output, start)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCommand)
}
