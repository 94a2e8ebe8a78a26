package codegen

import (
	"time"

	"golang.org/x/time/rate"
)

// RateLimiters holds client-side rate limiters consulted before each chat
// completion request when a Generator is configured with them via
// WithRateLimiters. Requests is waited on once per request; Tokens is waited
// on for the request's completion token budget.
//
// The defaults follow the published per-minute limits for pay-as-you-go
// accounts; users with different limits should construct their own with
// NewRateLimiters and adjust as needed.
type RateLimiters struct {
	Chat struct {
		Requests *rate.Limiter
		Tokens   *rate.Limiter
	}
}

// NewRateLimiters returns a new set of rate limiters for the OpenAI API.
func NewRateLimiters() *RateLimiters {
	rl := &RateLimiters{}

	rl.Chat.Requests = rate.NewLimiter(rate.Every(1*time.Minute), 3500)
	rl.Chat.Tokens = rate.NewLimiter(rate.Every(1*time.Minute), 90000)

	return rl
}
