package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic. A config without attempts
// makes a single attempt.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		lastErr        error
		invalidRetried bool
	)
	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var invalid *ErrInvalidResponse
		isInvalid := errors.As(err, &invalid)
		if !retryable(err) || (isInvalid && invalidRetried) {
			return nil, err
		}
		invalidRetried = invalidRetried || isInvalid

		if attempt == r.config.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Name() string { return r.inner.Name() }

// retryable reports whether err may succeed on another attempt. Context
// errors and truncated output are final; an invalid response is retried
// once by the caller.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var maxTok *ErrMaxTokensExceeded
	return !errors.As(err, &maxTok)
}

// backoff computes the wait before the next attempt. A rate limit with a
// RetryAfter hint is honored as is.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
