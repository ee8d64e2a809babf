package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not configured", fmt.Errorf("%w; set llm.provider", ErrNotConfigured), "No tutor is configured"},
		{"rate limit", &ErrRateLimit{RetryAfter: 1500 * time.Millisecond}, "Try again in 2s"},
		{"rate limit without hint", &ErrRateLimit{}, "Try again in a moment"},
		{"unavailable", fmt.Errorf("dialogue: %w", &ErrProviderUnavailable{}), "unreachable right now"},
		{"invalid", &ErrInvalidResponse{Err: errors.New("bad json")}, "garbled"},
		{"truncated", &ErrMaxTokensExceeded{}, "garbled"},
		{"timeout", fmt.Errorf("generate: %w", context.DeadlineExceeded), "took too long"},
		{"other", errors.New("boom"), "The tutor could not answer: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Explain(tt.err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}
