// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package oracle

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryPolicy bounds retries for oracle calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; it doubles on
	// every subsequent attempt.
	BaseDelay time.Duration

	// CallTimeout is applied to every individual attempt.
	CallTimeout time.Duration
}

// DefaultRetryPolicy mirrors the error-handling contract: bounded retries
// with backoff for timeouts, immediate escalation for everything local.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		CallTimeout: 30 * time.Second,
	}
}

// RetryingAnalyzer wraps an Analyzer with per-call timeouts and bounded
// backoff retries. Only ErrTimeout is retryable; ErrUnsupported and local
// failures escalate immediately.
type RetryingAnalyzer struct {
	Inner  Analyzer
	Policy RetryPolicy
	Logger *slog.Logger
}

// NewRetryingAnalyzer wraps inner with the given policy.
func NewRetryingAnalyzer(inner Analyzer, policy RetryPolicy, logger *slog.Logger) *RetryingAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &RetryingAnalyzer{Inner: inner, Policy: policy, Logger: logger}
}

// Analyze implements Analyzer.
func (r *RetryingAnalyzer) Analyze(ctx context.Context, content string, kind AnalysisType) (*Analysis, error) {
	var out *Analysis
	err := r.withRetry(ctx, "analyze", func(callCtx context.Context) error {
		var innerErr error
		out, innerErr = r.Inner.Analyze(callCtx, content, kind)
		return innerErr
	})
	return out, err
}

// Compress implements Analyzer.
func (r *RetryingAnalyzer) Compress(ctx context.Context, payload []byte, budget uint) ([]byte, error) {
	var out []byte
	err := r.withRetry(ctx, "compress", func(callCtx context.Context) error {
		var innerErr error
		out, innerErr = r.Inner.Compress(callCtx, payload, budget)
		return innerErr
	})
	return out, err
}

func (r *RetryingAnalyzer) withRetry(ctx context.Context, op string, call func(context.Context) error) error {
	delay := r.Policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= r.Policy.MaxAttempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if r.Policy.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.Policy.CallTimeout)
		}
		err := call(callCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		// An attempt that hit its per-call deadline surfaces as ErrTimeout.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = mapTransportError(context.DeadlineExceeded)
		}
		lastErr = err

		if !errors.Is(err, ErrTimeout) {
			return err
		}
		if attempt == r.Policy.MaxAttempts {
			break
		}

		r.Logger.Warn("oracle call timed out, retrying",
			"op", op, "attempt", attempt, "backoff", delay.String())
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}
