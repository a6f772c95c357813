package ingestion_engine

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"

	"github.com/contextcraft/docpipe/internal/core"
)

var _ core.LocalExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor converts document bytes to plain text locally. It backs
// up the AI extraction service: slower formats and scanned documents do
// worse here, but it needs no remote call.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) ExtractText(data []byte, contentType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv convert (%s): %w", contentType, err)
	}
	return res.Body, nil
}
