// Package codegen provides a thin wrapper around the OpenAI chat completions
// API for code generation tasks: generating code from natural language,
// completing partial snippets, and explaining, refactoring, or debugging
// existing code.
//
// https://platform.openai.com/docs/api-reference/chat
package codegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// Default request values, used when a Generator is created without
// explicit options. These mirror the defaults of the CLI configuration.
const (
	// DefaultModel is the model used for requests when none is configured.
	DefaultModel = "gpt-4"

	// DefaultMaxTokens is the completion token limit used when none is configured.
	DefaultMaxTokens int64 = 1000

	// DefaultTemperature is the sampling temperature used when none is configured.
	DefaultTemperature float64 = 0.7
)

// explainTemperature is the fixed sampling temperature used for code
// explanations, which benefit from more deterministic output.
const explainTemperature float64 = 0.3

// Generator performs code generation requests against the OpenAI API.
//
// All operations are single synchronous calls: one outbound request, the
// first completion choice's text content returned unmodified. Failures from
// the API (missing key, network errors, rate limits) are surfaced to the
// caller as-is.
type Generator struct {
	// Client is the underlying OpenAI API client used for requests.
	Client openai.Client

	// Model is the model identifier to use for requests.
	Model string

	// MaxTokens is the upper bound on generated completion tokens.
	MaxTokens int64

	// Temperature is the sampling temperature for requests, between 0 and 2.
	Temperature float64

	// Limits optionally rate limits outbound requests client-side. When nil,
	// no client-side limiting is applied.
	Limits *RateLimiters

	// LastUsage holds the token usage of the most recent request.
	LastUsage Usage
}

// Usage summarizes token consumption for a single request.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// GeneratorOption is a function that configures a Generator.
type GeneratorOption func(*Generator)

// WithModel is a GeneratorOption that sets the model used for requests.
func WithModel(model string) GeneratorOption {
	return func(g *Generator) {
		if model != "" {
			g.Model = model
		}
	}
}

// WithMaxTokens is a GeneratorOption that sets the completion token limit.
func WithMaxTokens(maxTokens int64) GeneratorOption {
	return func(g *Generator) {
		if maxTokens > 0 {
			g.MaxTokens = maxTokens
		}
	}
}

// WithTemperature is a GeneratorOption that sets the sampling temperature.
func WithTemperature(temperature float64) GeneratorOption {
	return func(g *Generator) {
		g.Temperature = temperature
	}
}

// WithRateLimiters is a GeneratorOption that enables client-side rate
// limiting using the given limiters.
func WithRateLimiters(limits *RateLimiters) GeneratorOption {
	return func(g *Generator) {
		g.Limits = limits
	}
}

// NewGenerator returns a new Generator using the given OpenAI client.
//
// # Example
//
//	client := openai.NewClient(option.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	gen := codegen.NewGenerator(client, codegen.WithModel("gpt-4"))
func NewGenerator(client openai.Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		Client:      client,
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate produces code from a natural-language prompt. The language
// argument optionally names a target programming language; when empty, the
// model picks one based on the prompt.
func (g *Generator) Generate(ctx context.Context, prompt, language string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("generate: %w", ErrEmptyPrompt)
	}

	system := systemPromptGenerate
	if language != "" {
		system += fmt.Sprintf(" Generate code in %s.", language)
	}

	return g.complete(ctx, system, prompt, g.Temperature)
}

// Complete finishes a partial code snippet. The contextHint argument
// optionally describes what the completion should accomplish.
func (g *Generator) Complete(ctx context.Context, partialCode, contextHint string) (string, error) {
	if strings.TrimSpace(partialCode) == "" {
		return "", fmt.Errorf("complete: %w", ErrEmptyPrompt)
	}

	prompt := "Complete the following code:\n\n" + partialCode
	if contextHint != "" {
		prompt += "\n\nContext: " + contextHint
	}

	return g.complete(ctx, systemPromptGenerate, prompt, g.Temperature)
}

// Explain produces a plain-language explanation of the given code.
func (g *Generator) Explain(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("explain: %w", ErrEmptyPrompt)
	}

	return g.complete(ctx, systemPromptExplain, "Explain this code:\n\n"+code, explainTemperature)
}

// DefaultRefactorGoal is the refactoring goal used when none is provided.
const DefaultRefactorGoal = "improve readability and efficiency"

// Refactor rewrites the given code toward a goal. When goal is empty,
// DefaultRefactorGoal is used.
func (g *Generator) Refactor(ctx context.Context, code, goal string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("refactor: %w", ErrEmptyPrompt)
	}

	if goal == "" {
		goal = DefaultRefactorGoal
	}

	prompt := fmt.Sprintf("Refactor the following code to %s:\n\n%s", goal, code)

	return g.complete(ctx, systemPromptGenerate, prompt, g.Temperature)
}

// Debug identifies and fixes problems in the given code. The errorMessage
// argument optionally includes an observed error to guide the fix.
func (g *Generator) Debug(ctx context.Context, code, errorMessage string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("debug: %w", ErrEmptyPrompt)
	}

	prompt := "Debug and fix the following code:\n\n" + code
	if errorMessage != "" {
		prompt += "\n\nError message: " + errorMessage
	}

	return g.complete(ctx, systemPromptGenerate, prompt, g.Temperature)
}

// complete performs a single chat completion request with a system and user
// message, returning the first choice's content unmodified.
func (g *Generator) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if g.Limits != nil {
		if err := g.Limits.Chat.Requests.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
		if err := g.Limits.Chat.Tokens.WaitN(ctx, int(g.MaxTokens)); err != nil {
			return "", fmt.Errorf("token rate limit wait: %w", err)
		}
	}

	resp, err := g.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(g.MaxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	g.LastUsage = Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	return resp.Choices[0].Message.Content, nil
}
