// Package session implements the interactive mode of the CLI: a raw-mode
// terminal loop that turns typed prompts into code generation requests and
// persists every exchange to a history store.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/picatz/codegen"
	"github.com/picatz/codegen/internal/history"
	"golang.org/x/term"
)

// CommandFunc defines the function signature for executing a command.
type CommandFunc func(ctx context.Context, session *Session, input string)

// Command represents an abstract command with a name, a matching function,
// and an execution function.
type Command struct {
	// Name of the command.
	//
	// If Matches is nil, the command is executed when the input matches the name.
	Name string

	// Description of the command.
	Description string

	// Matches is a function that checks if the command matches the input.
	//
	// If Matches is nil, the command is executed when the input matches the name.
	// If Matches is not nil, the command is executed when Matches returns true.
	Matches func(input string) bool

	// Run is the function that executes the command.
	Run CommandFunc
}

// prefixMatcher returns a Matches function for inputs of the form
// "<name>: ...".
func prefixMatcher(name string) func(string) bool {
	return func(input string) bool {
		return strings.HasPrefix(strings.TrimSpace(input), name+":")
	}
}

// trimPrefix strips "<name>:" from the input, leaving the operation's
// argument text.
func trimPrefix(name, input string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), name+":"))
}

// splitDetail splits "<detail> | <code>" operation arguments. The detail is
// the operation-specific extra (a completion context, refactoring goal, or
// error message); without a separator the whole input is the code.
func splitDetail(input string) (detail, code string) {
	if before, after, ok := strings.Cut(input, "|"); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", strings.TrimSpace(input)
}

// builtinCommands are the built-in commands available in an interactive
// session, used for managing the session and dispatching operations.
var builtinCommands = []Command{
	{
		Name:        "exit",
		Description: "Exit the session.",
		// Exiting is a special case, used for documentation.
	},
	{
		Name:        "clear",
		Description: "Clear the terminal screen.",
		Run: func(ctx context.Context, s *Session, input string) {
			s.clearScreen()
		},
	},
	{
		Name:        "help",
		Description: "Show help for commands.",
		Run: func(ctx context.Context, s *Session, input string) {
			s.ShowHelp()
		},
	},
	{
		Name:        "tokens",
		Description: "Show the number of tokens used this session.",
		Run: func(ctx context.Context, s *Session, input string) {
			s.OutWriter.WriteString(fmt.Sprintf("Tokens used: %d\n", s.CurrentTokensUsed))
		},
	},
	{
		Name:        "language",
		Description: "Set the target language for generated code (e.g. 'language: go').",
		Matches:     prefixMatcher("language"),
		Run: func(ctx context.Context, s *Session, input string) {
			s.Language = trimPrefix("language", input)
			if s.Language == "" {
				s.OutWriter.WriteString("Target language cleared.\n")
				return
			}
			s.OutWriter.WriteString(fmt.Sprintf("Target language set to %s.\n", s.Language))
		},
	},
	{
		Name: "history",
		Matches: func(input string) bool {
			// Matches "history" or "history <number>".
			switch {
			case strings.TrimSpace(input) == "history":
				return true
			case strings.HasPrefix(strings.TrimSpace(input), "history "):
				parts := strings.Fields(input)
				if len(parts) == 2 {
					_, err := strconv.Atoi(parts[1])
					return err == nil
				}
				return false
			default:
				return false
			}
		},
		Description: "Show past generations from the history store.",
		Run: func(ctx context.Context, s *Session, input string) {
			// Default to showing the last 10 records if no number is provided.
			numToShow := 10
			if parts := strings.Fields(input); len(parts) == 2 {
				if num, err := strconv.Atoi(parts[1]); err == nil {
					numToShow = num
				}
			}

			if numToShow <= 0 {
				s.OutWriter.WriteString("Invalid number of records to show.\n")
				return
			}

			entries, err := s.Store.List(ctx, numToShow)
			if err != nil {
				s.OutWriter.WriteString(fmt.Sprintf("Error listing history: %s\n", err))
				return
			}

			for _, entry := range entries {
				rec := entry.Record
				s.OutWriter.WriteString(fmt.Sprintf("\t%s (%s): %s\n\n", rec.Operation, entry.ID, rec.Prompt))
				s.OutWriter.WriteString(fmt.Sprintf("\t%s\n\n", rec.Output))
				s.OutWriter.WriteString(fmt.Sprintf("\tTokens used: %d\n\n", rec.PromptTokens+rec.OutputTokens))
				s.OutWriter.WriteString("---\n")
			}
		},
	},
	{
		Name:        "erase",
		Description: "Clear the stored generation history.",
		Run: func(ctx context.Context, s *Session, input string) {
			// Prompt the user for confirmation before clearing the history.
			s.OutWriter.WriteString("\nAre you sure you want to clear the stored history? (y/n): ")
			s.OutWriter.Flush()

			confirmation, err := s.Terminal.ReadLine()
			if err != nil {
				s.OutWriter.WriteString(fmt.Sprintf("Error reading confirmation: %s\n", err))
				return
			}

			if strings.ToLower(strings.TrimSpace(confirmation)) != "y" {
				s.OutWriter.WriteString("\nHistory not cleared.\n")
				return
			}

			if err := s.Store.Erase(ctx); err != nil {
				s.OutWriter.WriteString(fmt.Sprintf("Error clearing history: %s\n", err))
				return
			}

			if err := s.Store.Flush(ctx); err != nil {
				s.OutWriter.WriteString(fmt.Sprintf("Error flushing history store: %s\n", err))
				return
			}

			s.OutWriter.WriteString("\nHistory cleared.\n\n")
		},
	},
	{
		Name:        "copy",
		Description: "Copy the last result to the clipboard.",
		Run: func(ctx context.Context, s *Session, input string) {
			if s.LastOutput == "" {
				s.OutWriter.WriteString("Nothing to copy yet.\n")
				return
			}
			if err := writeClipboard(s.LastOutput); err != nil {
				s.OutWriter.WriteString(fmt.Sprintf("Clipboard error: %s\n", err))
			}
		},
	},
	{
		Name:        "complete",
		Description: "Complete partial code (e.g. 'complete: #file:main.go', or 'complete: <context> | <code>').",
		Matches:     prefixMatcher("complete"),
		Run: func(ctx context.Context, s *Session, input string) {
			detail, code := splitDetail(trimPrefix("complete", input))
			s.request(ctx, history.OpComplete, code, detail)
		},
	},
	{
		Name:        "explain",
		Description: "Explain code.",
		Matches:     prefixMatcher("explain"),
		Run: func(ctx context.Context, s *Session, input string) {
			s.request(ctx, history.OpExplain, trimPrefix("explain", input), "")
		},
	},
	{
		Name:        "refactor",
		Description: "Refactor code toward a goal (e.g. 'refactor: <goal> | <code>').",
		Matches:     prefixMatcher("refactor"),
		Run: func(ctx context.Context, s *Session, input string) {
			detail, code := splitDetail(trimPrefix("refactor", input))
			s.request(ctx, history.OpRefactor, code, detail)
		},
	},
	{
		Name:        "debug",
		Description: "Debug and fix code (e.g. 'debug: <error message> | <code>').",
		Matches:     prefixMatcher("debug"),
		Run: func(ctx context.Context, s *Session, input string) {
			detail, code := splitDetail(trimPrefix("debug", input))
			s.request(ctx, history.OpDebug, code, detail)
		},
	},
}

// Session encapsulates the state and behavior of an interactive CLI session.
// It manages terminal I/O, request dispatch, history persistence, and
// command processing.
type Session struct {
	Generator         *codegen.Generator
	Store             history.Store
	Language          string
	CurrentTokensUsed int64
	LastOutput        string

	Terminal   *term.Terminal
	OutWriter  *bufio.Writer
	TermWidth  int
	TermHeight int
	Commands   []Command
}

// NewSession creates and initializes a new interactive session.
//
// It sets the terminal to raw mode and registers the default commands.
// A restoration function is returned to restore the terminal state on exit.
func NewSession(ctx context.Context, gen *codegen.Generator, r io.Reader, w io.Writer, store history.Store) (*Session, func(), error) {
	var (
		restoreFunc     = func() {} // Default no-op restore function.
		termWidth   int = 80        // Terminal width (default 80).
		termHeight  int = 24        // Terminal height (default 24).
	)

	// If we're running in a terminal, set it to "raw" mode.
	if stdout, ok := w.(*os.File); ok {
		fd := int(stdout.Fd())

		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set terminal to raw mode: %w", err)
		}

		restoreFunc = func() {
			if err := term.Restore(fd, oldState); err != nil {
				fmt.Fprintf(os.Stderr, "\nfailed to restore terminal: %s\n", err)
			}
		}

		termWidth, termHeight, err = term.GetSize(fd)
		if err != nil {
			restoreFunc()
			return nil, nil, fmt.Errorf("failed to get terminal size while creating new session: %w", err)
		}
	}

	// Combine the reader and writer into a single io.ReadWriter.
	termReadWriter := struct {
		io.Reader
		io.Writer
	}{r, w}

	t := term.NewTerminal(termReadWriter, "")
	t.SetSize(termWidth, termHeight)

	s := &Session{
		Generator:  gen,
		Store:      store,
		Terminal:   t,
		OutWriter:  bufio.NewWriter(t),
		TermWidth:  termWidth,
		TermHeight: termHeight,
		Commands:   builtinCommands,
	}

	// Set up tab-completion for common commands.
	t.AutoCompleteCallback = s.autoComplete

	return s, restoreFunc, nil
}

func (s *Session) ShowHelp() {
	s.OutWriter.WriteString(lipgloss.NewStyle().Bold(true).Render("Commands") + " " +
		lipgloss.NewStyle().Faint(true).Render("(tab complete)") + "\n\n")

	for _, cmd := range s.Commands {
		s.OutWriter.WriteString("- " + lipgloss.NewStyle().Faint(true).Render(cmd.Name) + ": " + cmd.Description + "\n")
	}

	s.OutWriter.WriteString("\nAnything else is a code generation request.\n\n")

	s.OutWriter.WriteString("Use '" + lipgloss.NewStyle().Faint(true).Render("<clipboard>") +
		"' to include clipboard content in a request.\n")

	s.OutWriter.WriteString("Use '" + lipgloss.NewStyle().Faint(true).Render("#file:path") +
		"' to include file content in a request.\n")

	s.OutWriter.WriteString("Use '" + lipgloss.NewStyle().Faint(true).Render("#url:path") +
		"' to include URL content in a request.\n\n")

	s.OutWriter.Flush()
}

// Run starts the main loop of the session.
func (s *Session) Run(ctx context.Context) {
	s.clearScreen()

	s.OutWriter.WriteString(lipgloss.NewStyle().Bold(true).Render("Welcome to the codegen interactive mode!") + "\n\n")
	s.ShowHelp()

	for {
		done, err := s.RunOnce(ctx)
		if err != nil {
			s.OutWriter.WriteString(fmt.Sprintf("Error: %s\n", err))
			s.OutWriter.Flush()
			if !done {
				continue
			}
		}

		if done {
			break
		}
	}

	// Persist anything still buffered in the store.
	if err := s.Store.Flush(ctx); err != nil {
		s.OutWriter.WriteString(fmt.Sprintf("Failed to flush history store: %s\n", err))
		s.OutWriter.Flush()
	}
}

func doneWithoutError() (bool, error) {
	return true, nil
}

func nonFatalError(err error) (bool, error) {
	return false, err
}

func fatalError(err error) (bool, error) {
	return true, err
}

func ranSuccessfully() (bool, error) {
	return false, nil
}

// RunOnce reads a single line of input and handles it: a built-in command,
// an operation prefix, or a bare generation request.
func (s *Session) RunOnce(ctx context.Context) (bool, error) {
	s.OutWriter.WriteString("‣ ")
	s.OutWriter.Flush()

	input, err := s.Terminal.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return doneWithoutError()
		}
		return fatalError(fmt.Errorf("failed to read input: %w", err))
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "exit" {
		return doneWithoutError()
	}

	if trimmed == "" {
		return ranSuccessfully()
	}

	processedInput := ptr(input)

	// Process abstracted commands; if a command is executed, skip further processing.
	if s.processInput(ctx, processedInput) {
		return ranSuccessfully()
	}

	// Bare input is a generate request.
	s.request(ctx, history.OpGenerate, *processedInput, "")
	s.OutWriter.Flush()

	return ranSuccessfully()
}

// processInput iterates over the abstracted commands to see if any match the
// input. If a command matches, it is executed and the function returns true.
// Otherwise the input's include tokens are expanded in place.
func (s *Session) processInput(ctx context.Context, input *string) bool {
	if input == nil {
		return false
	}

	// Ensure the output writer is flushed after each command execution,
	// to avoid common boilerplate code that each command wants to do.
	defer s.OutWriter.Flush()

	// Expand include tokens first, so operation commands see the full text.
	if err := s.addFiles(input); err != nil {
		s.OutWriter.WriteString(fmt.Sprintf("Error adding files: %s\n", err))
		return true
	}

	if err := s.addURLs(input); err != nil {
		s.OutWriter.WriteString(fmt.Sprintf("Error adding URLs: %s\n", err))
		return true
	}

	if strings.Contains(*input, "<clipboard>") {
		clip, err := readClipboard()
		if err == nil {
			*input = strings.Replace(*input, "<clipboard>", clip, -1)
		} else {
			s.OutWriter.WriteString(fmt.Sprintf("Clipboard read error: %s\n", err))
		}
	}

	for _, cmd := range s.Commands {
		switch {
		case cmd.Matches == nil:
			if strings.TrimSpace(*input) == cmd.Name {
				if cmd.Run != nil {
					cmd.Run(ctx, s, *input)
				}
				return true
			}
		case cmd.Matches(*input):
			cmd.Run(ctx, s, *input)
			return true
		}
	}

	return false
}

// request dispatches an operation to the generator, renders the result, and
// records the exchange in the history store. The detail argument carries the
// operation-specific extra: a completion context, refactoring goal, or error
// message.
func (s *Session) request(ctx context.Context, op history.Operation, prompt, detail string) {
	defer s.OutWriter.Flush()

	start := time.Now()

	var (
		output string
		err    error
	)

	switch op {
	case history.OpComplete:
		output, err = s.Generator.Complete(ctx, prompt, detail)
	case history.OpExplain:
		output, err = s.Generator.Explain(ctx, prompt)
	case history.OpRefactor:
		output, err = s.Generator.Refactor(ctx, prompt, detail)
	case history.OpDebug:
		output, err = s.Generator.Debug(ctx, prompt, detail)
	default:
		output, err = s.Generator.Generate(ctx, prompt, s.Language)
	}
	if err != nil {
		s.OutWriter.WriteString(fmt.Sprintf("Error: %s\n", err))
		return
	}

	rendered, err := renderMarkdown(strings.TrimRight(output, "\n"), s.TermWidth)
	if err != nil {
		s.OutWriter.WriteString(output + "\n")
	} else {
		s.OutWriter.WriteString(rendered)
	}

	usage := s.Generator.LastUsage
	s.CurrentTokensUsed += usage.TotalTokens
	s.LastOutput = output

	s.OutWriter.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("(%s, %d tokens, %s)", op, usage.TotalTokens, time.Since(start).Round(time.Millisecond)),
	) + "\n")

	if _, err := s.Store.Append(ctx, history.Record{
		Operation:    op,
		Model:        s.Generator.Model,
		Prompt:       prompt,
		Output:       output,
		PromptTokens: usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		s.OutWriter.WriteString(fmt.Sprintf("Failed to save to history store: %s\n", err))
	}
}

// addFiles replaces #file:$path tokens in the input with the file's contents.
func (s *Session) addFiles(input *string) error {
	if input == nil || !strings.Contains(*input, "#file:") {
		return nil
	}

	fields := strings.Fields(*input)
	for _, field := range fields {
		if strings.HasPrefix(field, "#file:") {
			filePath := strings.TrimPrefix(field, "#file:")

			file, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file %q: %w", filePath, err)
			}
			defer file.Close()

			scanner := bufio.NewScanner(file)
			var fileContent strings.Builder
			for scanner.Scan() {
				fileContent.WriteString(scanner.Text() + "\n")
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading file %q: %w", filePath, err)
			}

			// Replace the #file: directive in the input with the file's content
			*input = strings.Replace(*input, field, fileContent.String(), 1)
		}
	}

	return nil
}

// addURLs makes GET requests to #url:$path tokens in the input and replaces
// them with the response content.
func (s *Session) addURLs(input *string) error {
	if input == nil || !strings.Contains(*input, "#url:") {
		return nil
	}

	fields := strings.Fields(*input)
	for _, field := range fields {
		if strings.HasPrefix(field, "#url:") {
			url := strings.TrimPrefix(field, "#url:")

			if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
				url = fmt.Sprint("https://", url)
			}

			if strings.HasPrefix(url, "http://") {
				url = strings.Replace(url, "http://", "https://", 1)
			}

			resp, err := http.Get(url)
			if err != nil {
				return fmt.Errorf("failed to fetch URL %q: %w", url, err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("error reading response body from URL %q: %w", url, err)
			}

			// Replace the #url: directive in the input with the response content
			*input = strings.Replace(*input, field, string(body), 1)
		}
	}

	return nil
}

// ptr is a helper function to create a pointer to a value, because
// we're using a pointer to process the input (in case we need to modify it).
func ptr[T any](v T) *T {
	return &v
}

// clearScreen clears the terminal.
func (s *Session) clearScreen() {
	s.OutWriter.WriteString("\033[2J") // Clear the screen.
	s.OutWriter.WriteString("\033[H")  // Move cursor to the top-left corner (like 'clear' command).
	s.OutWriter.Flush()
}

// autoComplete provides basic tab-completion for common commands.
func (s *Session) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key == '\t' {
		for _, cmd := range s.Commands {
			if strings.HasPrefix(cmd.Name, line) {
				return cmd.Name, len(cmd.Name), true
			}
		}
	}
	return line, pos, false
}
