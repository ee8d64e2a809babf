package llm

import (
	"context"
	"time"
)

// TimeoutProvider bounds every Generate call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider so that each call fails after d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string { return t.inner.ModelID() }

func (t *TimeoutProvider) Name() string { return t.inner.Name() }
