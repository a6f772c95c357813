package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextcraft/docpipe/internal/core"
)

// scriptedEmbedder fails according to a fixed script of errors, one per
// call, then succeeds.
type scriptedEmbedder struct {
	script []error
	calls  int
	inputs []string
}

func (s *scriptedEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	s.inputs = append(s.inputs, text)
	defer func() { s.calls++ }()
	if s.calls < len(s.script) {
		return nil, s.script[s.calls]
	}
	return []float32{1, 2, 3}, nil
}

func (s *scriptedEmbedder) ModelName() string { return "scripted" }

func recordingSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func testPolicy() BackoffPolicy {
	return BackoffPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, RetryDelay: 500 * time.Millisecond}
}

func TestEmbedWithRetryRecoversFromRateLimits(t *testing.T) {
	rateLimited := fmt.Errorf("throttled: %w", core.ErrRateLimited)
	emb := &scriptedEmbedder{script: []error{rateLimited, rateLimited}}

	var delays []time.Duration
	vec, err := embedWithRetry(context.Background(), emb, testPolicy(), recordingSleep(&delays), "some text")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, 3, emb.calls)
	// Rate-limit backoff grows linearly with the attempt number.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestEmbedWithRetryExhaustsOnPersistentRateLimit(t *testing.T) {
	rateLimited := fmt.Errorf("throttled: %w", core.ErrRateLimited)
	emb := &scriptedEmbedder{script: []error{rateLimited, rateLimited, rateLimited, rateLimited}}

	var delays []time.Duration
	_, err := embedWithRetry(context.Background(), emb, testPolicy(), recordingSleep(&delays), "some text")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRateLimited)
	assert.Equal(t, 3, emb.calls)
	// No sleep after the final attempt.
	assert.Len(t, delays, 2)
}

func TestEmbedWithRetryUsesShortDelayForOtherFailures(t *testing.T) {
	emb := &scriptedEmbedder{script: []error{errors.New("transient")}}

	var delays []time.Duration
	vec, err := embedWithRetry(context.Background(), emb, testPolicy(), recordingSleep(&delays), "some text")

	require.NoError(t, err)
	assert.NotEmpty(t, vec)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, delays)
}

func TestEmbedWithRetryNormalizesInput(t *testing.T) {
	emb := &scriptedEmbedder{}
	_, err := embedWithRetry(context.Background(), emb, testPolicy(), DefaultSleep, "  line one\nline two\r\nline three  ")

	require.NoError(t, err)
	require.Len(t, emb.inputs, 1)
	assert.Equal(t, "line one line two line three", emb.inputs[0])
}

func TestEmbedWithRetryStopsWhenContextCanceled(t *testing.T) {
	rateLimited := fmt.Errorf("throttled: %w", core.ErrRateLimited)
	emb := &scriptedEmbedder{script: []error{rateLimited, rateLimited, rateLimited}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedWithRetry(ctx, emb, testPolicy(), DefaultSleep, "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, emb.calls)
}
