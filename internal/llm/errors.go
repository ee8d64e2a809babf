package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrNotConfigured is returned when no provider could be built from config.
var ErrNotConfigured = errors.New("no LLM provider configured")

// Explain turns a provider error into a sentence a learner can act on.
func Explain(err error) string {
	var (
		rl          *ErrRateLimit
		invalid     *ErrInvalidResponse
		unavailable *ErrProviderUnavailable
		truncated   *ErrMaxTokensExceeded
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "No tutor is configured. Set llm.provider or an API key and try again."
	case errors.As(err, &rl):
		if rl.RetryAfter > 0 {
			return fmt.Sprintf("The tutor is busy. Try again in %s.", rl.RetryAfter.Round(time.Second))
		}
		return "The tutor is busy. Try again in a moment."
	case errors.As(err, &unavailable):
		return "The tutor is unreachable right now. Your session is kept, so just try again."
	case errors.As(err, &invalid), errors.As(err, &truncated):
		return "The tutor's answer came back garbled. Please say that again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The tutor took too long to answer. Please try again."
	}
	return "The tutor could not answer: " + err.Error()
}
