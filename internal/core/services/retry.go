package services

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// withTimeout runs fn under a deadline of d.
func withTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

// retryOnce runs fn and, if it fails with a transient error, runs it
// one more time after backoff. Each attempt gets its own timeout.
func retryOnce(ctx context.Context, timeout, backoff time.Duration, fn func(ctx context.Context) error) error {
	err := withTimeout(ctx, timeout, fn)
	if err == nil || !domain.IsTransient(err) || ctx.Err() != nil {
		return err
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-timer.C:
	}

	return withTimeout(ctx, timeout, fn)
}

// infer runs a blocking model call on the inference pool when one is
// configured, inline otherwise.
func infer(ctx context.Context, pool driven.InferencePool, fn func(ctx context.Context) error) error {
	if pool == nil {
		return fn(ctx)
	}
	return pool.Submit(ctx, fn)
}
