package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// printResult writes an operation's output to the command's stdout,
// rendered as markdown unless --plain is set or rendering fails.
func printResult(cmd *cobra.Command, output string) {
	output = strings.TrimRight(output, "\n")

	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return
	}

	rendered, err := glamour.Render(output, "dark")
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), rendered)
}

// readCode reads the code to operate on from stdin.
func readCode(cmd *cobra.Command) (string, error) {
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read code from stdin: %w", err)
	}

	return string(b), nil
}
