package codegen

import "errors"

// System prompts grounding the model for each operation.
const (
	systemPromptGenerate = "You are an expert programmer assistant. Generate clean, efficient, and well-commented code based on user requests."
	systemPromptExplain  = "You are a helpful code explainer. Provide clear, concise explanations of code."
)

var (
	// ErrEmptyPrompt is returned when an operation is given an empty or
	// whitespace-only prompt or code snippet, before any network call is made.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrNoChoices is returned when the API responds without any completion
	// choices to return.
	ErrNoChoices = errors.New("response contained no choices")
)
