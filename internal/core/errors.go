package core

import "errors"

// Sentinel errors for the processing pipeline. Fatal ones abort the whole
// request; the rest are recovered or isolated per chunk.
var (
	// ErrNotFound means the document id does not resolve to a stored document.
	ErrNotFound = errors.New("document not found")

	// ErrEmptyContent means extraction produced a blank payload; there is
	// nothing to chunk.
	ErrEmptyContent = errors.New("document content is empty")

	// ErrRateLimited marks a throttled remote call. Retry policies back off
	// longer on this than on other transient failures.
	ErrRateLimited = errors.New("rate limited")

	// ErrExtraction marks a failed binary fetch/parse/AI extraction. The
	// extractor recovers from it by degrading to a placeholder payload.
	ErrExtraction = errors.New("content extraction failed")
)
