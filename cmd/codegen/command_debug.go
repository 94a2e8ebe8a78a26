package main

import (
	"strings"
	"time"

	"github.com/picatz/codegen/internal/history"
	"github.com/spf13/cobra"
)

var debugCommand = &cobra.Command{
	Use:   "debug",
	Short: "Debug and fix code read from stdin",
	Example: strings.Join([]string{
		"  cat main.go | codegen debug",
		"  cat main.go | codegen debug --error 'panic: runtime error: index out of range'",
	}, "\n"),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(cmd)
		if err != nil {
			return err
		}

		errorMessage, _ := cmd.Flags().GetString("error")

		gen, err := newGenerator()
		if err != nil {
			return err
		}

		start := time.Now()

		output, err := gen.Debug(cmd.Context(), code, errorMessage)
		if err != nil {
			return err
		}

		finishRequest(cmd, gen, history.OpDebug, code, output, start)

		return nil
	},
}

func init() {
	debugCommand.Flags().String("error", "", "observed error message to guide the fix")

	rootCmd.AddCommand(debugCommand)
}
