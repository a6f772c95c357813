package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contextcraft/docpipe/internal/core"
)

// BackoffPolicy bounds the per-chunk embedding retries.
//
// MaxAttempts: total attempts including the first call.
// BaseDelay:   rate-limit backoff grows linearly as attempt × BaseDelay.
// RetryDelay:  fixed, shorter wait for non-rate-limit failures.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	RetryDelay  time.Duration
}

// Delay returns how long to wait after a failed attempt (1-based) before
// the next one.
func (p BackoffPolicy) Delay(attempt int, rateLimited bool) time.Duration {
	if rateLimited {
		return time.Duration(attempt) * p.BaseDelay
	}
	return p.RetryDelay
}

// SleepFunc waits for the given duration or until the context is done.
// Injectable so retry behavior is testable without real elapsed time.
type SleepFunc func(ctx context.Context, d time.Duration) error

// DefaultSleep blocks on a timer, honoring context cancellation.
func DefaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// normalizeForEmbedding collapses newlines to spaces and trims, matching
// what the embedding service expects as input.
func normalizeForEmbedding(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}

// embedWithRetry calls the embedder for one chunk, backing off linearly on
// rate limits and briefly on other failures, up to the attempt cap.
func embedWithRetry(ctx context.Context, embedder core.EmbeddingProvider, policy BackoffPolicy, sleep SleepFunc, text string) ([]float32, error) {
	normalized := normalizeForEmbedding(text)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		vec, err := embedder.EmbedText(ctx, normalized)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}
		if serr := sleep(ctx, policy.Delay(attempt, errors.Is(err, core.ErrRateLimited))); serr != nil {
			return nil, serr
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", policy.MaxAttempts, lastErr)
}
