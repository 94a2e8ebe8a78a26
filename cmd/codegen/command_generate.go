package main

import (
	"strings"
	"time"

	"github.com/picatz/codegen/internal/history"
	"github.com/spf13/cobra"
)

var generateCommand = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate code from a natural-language description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")
		language, _ := cmd.Flags().GetString("language")

		gen, err := newGenerator()
		if err != nil {
			return err
		}

		prompt, err = maybeAddRepoContext(cmd, prompt)
		if err != nil {
			return err
		}

		start := time.Now()

		output, err := gen.Generate(cmd.Context(), prompt, language)
		if err != nil {
			return err
		}

		finishRequest(cmd, gen, history.OpGenerate, prompt, output, start)

		return nil
	},
}

func init() {
	generateCommand.Flags().StringP("language", "l", "", "target programming language")
	generateCommand.Flags().String("repo", "", "include tracked files from the git repository at this path as prompt context")

	rootCmd.AddCommand(generateCommand)
}
