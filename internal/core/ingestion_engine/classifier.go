package ingestion_engine

import (
	"encoding/json"
	"strings"

	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/models"
)

// Strategy identifies which chunker handles a classified payload.
type Strategy int

const (
	// StrategyStructuralText splits free text on detected section boundaries.
	StrategyStructuralText Strategy = iota
	// StrategyEntityJSON emits one chunk per named entity of a data model.
	StrategyEntityJSON
	// StrategyLineGroup is the degraded last resort for JSON-shaped payloads
	// that do not parse.
	StrategyLineGroup
)

// Chunker turns a resolved payload into an ordered chunk list.
type Chunker interface {
	Chunk(payload string) []Chunk
}

// Classify selects the chunking strategy for a resolved payload. It is a
// pure function: entity-aware JSON chunking applies when the declared type
// is a data model, the payload resolved as structured, or the raw text is
// JSON-shaped and parses; a JSON-shaped payload that fails to parse falls
// back to line grouping.
func Classify(content core.Content, docType models.DocumentType) Strategy {
	raw := content.Raw()
	jsonCandidate := docType == models.DocTypeDataModel ||
		content.Kind == core.ContentStructured ||
		looksLikeJSON(raw)

	if !jsonCandidate {
		return StrategyStructuralText
	}
	if json.Valid([]byte(strings.TrimSpace(raw))) {
		return StrategyEntityJSON
	}
	return StrategyLineGroup
}

func looksLikeJSON(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}

// newChunkerRegistry maps every strategy to its chunker implementation.
func newChunkerRegistry(cfg *PipelineConfig) map[Strategy]Chunker {
	return map[Strategy]Chunker{
		StrategyStructuralText: &structuralTextChunker{cfg: cfg},
		StrategyEntityJSON:     &entityJSONChunker{cfg: cfg},
		StrategyLineGroup:      &lineGroupChunker{cfg: cfg},
	}
}
