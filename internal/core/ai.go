package core

import "context"

// EmbeddingProvider turns normalized text into a fixed-length vector.
// Implementations return an error wrapping ErrRateLimited when the remote
// service throttles the call, so retry policies can tell the cases apart.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// ExtractionService is the remote AI service used to pull text out of
// binary document formats. Both calls operate on the raw file bytes and a
// MIME type; the region call describes which part of the document to cover.
type ExtractionService interface {
	// StructureOverview surveys pages, sections, tables and code blocks,
	// capped to a small output budget.
	StructureOverview(ctx context.Context, data []byte, mimeType string) (string, error)
	// ExtractRegion extracts readable text for one described region of the
	// document ("beginning", "middle", "end"), capped to an output budget.
	ExtractRegion(ctx context.Context, data []byte, mimeType string, region string) (string, error)
}
