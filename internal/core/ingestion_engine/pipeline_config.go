package ingestion_engine

import (
	"time"

	"github.com/contextcraft/docpipe/internal/models"
)

// PipelineConfig tunes the processing pipeline.
//
// MaxChunkSize:  upper bound in characters for every chunking strategy.
// MinSectionLen: detected section slices shorter than this are noise and dropped.
// EmbedDim:      expected embedding vector length (0 = accept whatever the model returns).
// Backoff:       retry policy for the per-chunk embedding call.
type PipelineConfig struct {
	MaxChunkSize  int
	MinSectionLen int
	EmbedDim      int
	Backoff       BackoffPolicy
}

// DefaultPipelineConfig returns the knobs used when nothing is configured.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxChunkSize:  1500,
		MinSectionLen: 50,
		Backoff: BackoffPolicy{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			RetryDelay:  500 * time.Millisecond,
		},
	}
}

// Chunk is the internal representation passed through the pipeline. The
// chunk index, character/word counts and position ratio are assigned at
// persist time from the emission order.
type Chunk struct {
	Text       string
	Section    string
	Importance models.Importance
}
