package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/picatz/codegen"
	"github.com/picatz/codegen/internal/config"
	"github.com/picatz/codegen/internal/history"
	"github.com/picatz/codegen/internal/logging"
	"github.com/picatz/codegen/internal/repoctx"
	"github.com/picatz/codegen/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cfg is the resolved configuration, loaded once before any command runs
// and read-only thereafter.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "codegen [prompt]",
	Short: "Generate code with the OpenAI API",
	Long: strings.Join([]string{
		"Generate code from natural language using the OpenAI chat completions API.",
		"",
		"With a prompt argument, generates code and prints the result. With no",
		"arguments, starts an interactive session.",
	}, "\n"),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		// Flags override the environment and config file.
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			cfg.Model = model
		}
		if maxTokens, _ := cmd.Flags().GetInt64("max-tokens"); maxTokens > 0 {
			cfg.MaxTokens = maxTokens
		}
		if cmd.Flags().Changed("temperature") {
			cfg.Temperature, _ = cmd.Flags().GetFloat64("temperature")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return startInteractive(cmd)
		}

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
	rootCmd.PersistentFlags().String("model", "", "model to use (overrides config)")
	rootCmd.PersistentFlags().Int64("max-tokens", 0, "completion token limit (overrides config)")
	rootCmd.PersistentFlags().Float64("temperature", 0, "sampling temperature (overrides config)")
	rootCmd.PersistentFlags().Bool("plain", false, "print raw text without markdown rendering")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("temporary", "t", false, "use a temporary in-memory history store")

	rootCmd.Flags().StringP("language", "l", "", "target programming language")
	rootCmd.Flags().String("repo", "", "include tracked files from the git repository at this path as prompt context")
}

// newClient validates the configuration and returns an OpenAI API client.
// Validation failures happen here, before any network call is attempted.
func newClient() (openai.Client, error) {
	if err := cfg.Validate(); err != nil {
		return openai.Client{}, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(3),
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}

	return openai.NewClient(opts...), nil
}

// newGenerator returns a Generator configured from the resolved config.
func newGenerator() (*codegen.Generator, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	return codegen.NewGenerator(client,
		codegen.WithModel(cfg.Model),
		codegen.WithMaxTokens(cfg.MaxTokens),
		codegen.WithTemperature(cfg.Temperature),
	), nil
}

// newHistoryStore opens the history store: the default on-disk pebble store,
// or an in-memory store with the --temporary flag.
func newHistoryStore(cmd *cobra.Command) (history.Store, error) {
	if useTemp, _ := cmd.Flags().GetBool("temporary"); useTemp {
		return memoryStore(), nil
	}
	return pebbleStore()
}

// maybeAddRepoContext prepends a repository context block to the prompt when
// the --repo flag is set.
func maybeAddRepoContext(cmd *cobra.Command, prompt string) (string, error) {
	repoFlag := cmd.Flags().Lookup("repo")
	if repoFlag == nil || repoFlag.Value.String() == "" {
		return prompt, nil
	}

	repoContext, err := repoctx.Build(repoFlag.Value.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build repository context: %w", err)
	}

	if repoContext == "" {
		return prompt, nil
	}

	return repoContext + "\n" + prompt, nil
}

// finishRequest prints an operation's output and records it in the history
// store. A history store failure doesn't fail the request; the result is
// already in hand.
func finishRequest(cmd *cobra.Command, gen *codegen.Generator, op history.Operation, prompt, output string, start time.Time) {
	printResult(cmd, output)

	log.Debug().
		Str("operation", string(op)).
		Str("model", gen.Model).
		Int64("prompt_tokens", gen.LastUsage.PromptTokens).
		Int64("completion_tokens", gen.LastUsage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	store, err := newHistoryStore(cmd)
	if err != nil {
		log.Warn().Err(err).Msg("failed to open history store, result not recorded")
		return
	}
	defer store.Close(cmd.Context())

	if _, err := store.Append(cmd.Context(), history.Record{
		Operation:    op,
		Model:        gen.Model,
		Prompt:       prompt,
		Output:       output,
		PromptTokens: gen.LastUsage.PromptTokens,
		OutputTokens: gen.LastUsage.CompletionTokens,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record result in history store")
	}
}

// startInteractive runs the interactive session until the user exits.
func startInteractive(cmd *cobra.Command) error {
	gen, err := newGenerator()
	if err != nil {
		return err
	}

	store, err := newHistoryStore(cmd)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close(cmd.Context())

	s, restore, err := session.NewSession(cmd.Context(), gen, cmd.InOrStdin(), cmd.OutOrStdout(), store)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer restore()

	if language, _ := cmd.Flags().GetString("language"); language != "" {
		s.Language = language
	}

	s.Run(cmd.Context())

	return nil
}
