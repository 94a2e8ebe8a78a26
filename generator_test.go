package codegen_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/picatz/codegen"
	"github.com/shoenig/test/must"
	"golang.org/x/time/rate"
)

// stubRequest is the subset of the chat completions request body the tests
// care about.
type stubRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// stubServer runs a fake chat completions endpoint returning the given
// content, recording the number of requests and the last request body seen.
func stubServer(t *testing.T, content string) (*httptest.Server, *atomic.Int64, *stubRequest) {
	t.Helper()

	var (
		requests atomic.Int64
		lastReq  stubRequest
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if err := json.NewDecoder(r.Body).Decode(&lastReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"created": 1,
			"model": %q,
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46}
		}`, lastReq.Model, content)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, &requests, &lastReq
}

func testGenerator(t *testing.T, server *httptest.Server, opts ...codegen.GeneratorOption) *codegen.Generator {
	t.Helper()

	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)

	return codegen.NewGenerator(client, opts...)
}

func TestGenerate_passthrough(t *testing.T) {
	content := "```go\nfunc Add(a, b int) int { return a + b }\n```"

	server, requests, lastReq := stubServer(t, content)
	gen := testGenerator(t, server)

	out, err := gen.Generate(t.Context(), "write an add function", "Go")
	must.NoError(t, err)
	must.Eq(t, content, out) // no transformation of the response
	must.Eq(t, int64(1), requests.Load())

	must.Len(t, 2, lastReq.Messages)
	must.Eq(t, "system", lastReq.Messages[0].Role)
	must.StrContains(t, lastReq.Messages[0].Content, "expert programmer assistant")
	must.StrContains(t, lastReq.Messages[0].Content, "Generate code in Go.")
	must.Eq(t, "user", lastReq.Messages[1].Role)
	must.Eq(t, "write an add function", lastReq.Messages[1].Content)

	must.Eq(t, codegen.DefaultModel, lastReq.Model)
	must.Eq(t, codegen.DefaultMaxTokens, lastReq.MaxTokens)
	must.Eq(t, codegen.DefaultTemperature, lastReq.Temperature)

	must.Eq(t, int64(46), gen.LastUsage.TotalTokens)
}

func TestGenerate_options(t *testing.T) {
	server, _, lastReq := stubServer(t, "ok")
	gen := testGenerator(t, server,
		codegen.WithModel("gpt-4o"),
		codegen.WithMaxTokens(2048),
		codegen.WithTemperature(0.2),
	)

	_, err := gen.Generate(t.Context(), "hello", "")
	must.NoError(t, err)

	must.Eq(t, "gpt-4o", lastReq.Model)
	must.Eq(t, int64(2048), lastReq.MaxTokens)
	must.Eq(t, 0.2, lastReq.Temperature)
	must.StrNotContains(t, lastReq.Messages[0].Content, "Generate code in")
}

func TestEmptyInputs_rejectedBeforeNetwork(t *testing.T) {
	server, requests, _ := stubServer(t, "should never be returned")
	gen := testGenerator(t, server)

	ctx := t.Context()

	for name, call := range map[string]func() (string, error){
		"generate": func() (string, error) { return gen.Generate(ctx, "  \n\t", "") },
		"complete": func() (string, error) { return gen.Complete(ctx, "", "finish it") },
		"explain":  func() (string, error) { return gen.Explain(ctx, "") },
		"refactor": func() (string, error) { return gen.Refactor(ctx, "", "") },
		"debug":    func() (string, error) { return gen.Debug(ctx, "", "oops") },
	} {
		out, err := call()
		must.Error(t, err, must.Sprintf("%s should reject empty input", name))
		must.ErrorIs(t, err, codegen.ErrEmptyPrompt)
		must.Eq(t, "", out)
	}

	must.Eq(t, int64(0), requests.Load())
}

func TestComplete_promptComposition(t *testing.T) {
	server, _, lastReq := stubServer(t, "done")
	gen := testGenerator(t, server)

	_, err := gen.Complete(t.Context(), "def add(a, b):", "sum two numbers")
	must.NoError(t, err)

	must.StrContains(t, lastReq.Messages[1].Content, "Complete the following code:")
	must.StrContains(t, lastReq.Messages[1].Content, "def add(a, b):")
	must.StrContains(t, lastReq.Messages[1].Content, "Context: sum two numbers")
}

func TestExplain_usesFixedTemperature(t *testing.T) {
	server, _, lastReq := stubServer(t, "it adds numbers")
	gen := testGenerator(t, server, codegen.WithTemperature(0.9))

	_, err := gen.Explain(t.Context(), "a + b")
	must.NoError(t, err)

	must.Eq(t, 0.3, lastReq.Temperature)
	must.StrContains(t, lastReq.Messages[0].Content, "code explainer")
}

func TestRefactor_defaultGoal(t *testing.T) {
	server, _, lastReq := stubServer(t, "refactored")
	gen := testGenerator(t, server)

	_, err := gen.Refactor(t.Context(), "x = x + 1", "")
	must.NoError(t, err)

	must.StrContains(t, lastReq.Messages[1].Content, codegen.DefaultRefactorGoal)
}

func TestDebug_includesErrorMessage(t *testing.T) {
	server, _, lastReq := stubServer(t, "fixed")
	gen := testGenerator(t, server)

	_, err := gen.Debug(t.Context(), "panic()", "runtime error")
	must.NoError(t, err)

	must.StrContains(t, lastReq.Messages[1].Content, "Debug and fix the following code:")
	must.StrContains(t, lastReq.Messages[1].Content, "Error message: runtime error")
}

func TestGenerate_rateLimited(t *testing.T) {
	server, requests, _ := stubServer(t, "ok")

	limits := codegen.NewRateLimiters()
	limits.Chat.Requests = rate.NewLimiter(rate.Every(time.Minute), 1)

	gen := testGenerator(t, server, codegen.WithRateLimiters(limits))

	// The single burst token lets the first request through.
	_, err := gen.Generate(t.Context(), "hello", "")
	must.NoError(t, err)
	must.Eq(t, int64(1), requests.Load())

	// The second request has to wait a minute for the next token; a canceled
	// context surfaces the wait as an error before any network call.
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = gen.Generate(ctx, "hello again", "")
	must.Error(t, err)
	must.Eq(t, int64(1), requests.Load())
}

func TestGenerate_tokenBudgetLimited(t *testing.T) {
	server, requests, _ := stubServer(t, "ok")

	limits := codegen.NewRateLimiters()
	limits.Chat.Tokens = rate.NewLimiter(rate.Every(time.Minute), 10)

	gen := testGenerator(t, server)
	gen.Limits = limits

	// The default completion budget exceeds the token limiter's burst, a
	// wait that can never be satisfied.
	_, err := gen.Generate(t.Context(), "hello", "")
	must.Error(t, err)
	must.Eq(t, int64(0), requests.Load())
}

func TestGenerate_noChoices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "chatcmpl-test", "object": "chat.completion", "created": 1, "model": "gpt-4", "choices": []}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	gen := testGenerator(t, server)

	_, err := gen.Generate(t.Context(), "hello", "")
	must.ErrorIs(t, err, codegen.ErrNoChoices)
}

func TestGenerate_apiErrorSurfaced(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	gen := testGenerator(t, server)

	_, err := gen.Generate(t.Context(), "hello", "")
	must.Error(t, err)
	must.StrContains(t, err.Error(), "429")
}
