package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retrying wraps a Provider with the shared cross-cutting call policy:
// a per-call timeout and bounded exponential backoff on transient error
// classes. Auth and request errors are never retried.
type Retrying struct {
	inner    Provider
	timeout  time.Duration
	attempts int
	backoff  time.Duration // Initial backoff; doubles per attempt
	sleep    func(time.Duration)
}

// RetryOption configures a Retrying wrapper.
type RetryOption func(*Retrying)

// WithAttempts bounds the total attempts per call.
func WithAttempts(n int) RetryOption {
	return func(r *Retrying) {
		r.attempts = n
	}
}

// WithBackoff sets the initial backoff interval.
func WithBackoff(d time.Duration) RetryOption {
	return func(r *Retrying) {
		r.backoff = d
	}
}

// withSleep replaces the sleep function; used by tests.
func withSleep(fn func(time.Duration)) RetryOption {
	return func(r *Retrying) {
		r.sleep = fn
	}
}

// NewRetrying wraps a provider with the retry/timeout policy.
func NewRetrying(inner Provider, timeout time.Duration, opts ...RetryOption) *Retrying {
	r := &Retrying{
		inner:    inner,
		timeout:  timeout,
		attempts: DefaultAttempts,
		backoff:  time.Second,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate calls the wrapped provider, retrying transient failures.
func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	delay := r.backoff

	for attempt := 1; attempt <= r.attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		text, err := r.inner.Generate(callCtx, req)
		cancel()

		if err == nil {
			return text, nil
		}

		lastErr = Classify(err)
		if !IsTransient(lastErr) {
			return "", lastErr
		}
		if attempt == r.attempts {
			break
		}

		slog.Debug("retrying provider call",
			"source", req.SourcePath, "attempt", attempt, "backoff", delay, "error", lastErr)
		r.sleep(delay)
		delay *= 2
	}

	return "", fmt.Errorf("after %d attempts: %w", r.attempts, lastErr)
}
