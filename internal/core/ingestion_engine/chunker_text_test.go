package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextcraft/docpipe/internal/models"
)

const sectionedText = `1. Introduction

This document describes the payments platform. It exists to give the team a
shared understanding of what the system must do before any code is written.

2. Requirements

The system shall accept card payments and settle them within two business
days. The system shall retry failed settlements with exponential backoff.
`

func TestStructuralChunkerSectionedText(t *testing.T) {
	chunker := newChunkerRegistry(DefaultPipelineConfig())[StrategyStructuralText]
	chunks := chunker.Chunk(sectionedText)

	// overview + one chunk per section
	require.Len(t, chunks, 3)

	assert.Equal(t, "Document Overview", chunks[0].Section)
	assert.Equal(t, models.ImportanceHigh, chunks[0].Importance)
	assert.Contains(t, chunks[0].Text, "1. Introduction")
	assert.Contains(t, chunks[0].Text, "2. Requirements")

	assert.Equal(t, "1. Introduction", chunks[1].Section)
	assert.Equal(t, models.ImportanceHigh, chunks[1].Importance)
	assert.Contains(t, chunks[1].Text, "payments platform")

	assert.Equal(t, "2. Requirements", chunks[2].Section)
	assert.Equal(t, models.ImportanceHigh, chunks[2].Importance)
	assert.Contains(t, chunks[2].Text, "card payments")
}

func TestStructuralChunkerMarkdownAndVocabHeaders(t *testing.T) {
	text := "# Design Notes\n\n" + strings.Repeat("Design detail sentence here. ", 5) + "\n\n" +
		"Background\n\n" + strings.Repeat("Historical context sentence. ", 5) + "\n"

	chunker := newChunkerRegistry(DefaultPipelineConfig())[StrategyStructuralText]
	chunks := chunker.Chunk(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Design Notes", chunks[1].Section)
	assert.Equal(t, models.ImportanceMedium, chunks[1].Importance)
	assert.Equal(t, "Background", chunks[2].Section)
	assert.Equal(t, models.ImportanceMedium, chunks[2].Importance)
}

func TestStructuralChunkerDiscardsNoiseSections(t *testing.T) {
	text := "1. Introduction\n\nShort.\n\n2. Requirements\n\n" +
		strings.Repeat("The system shall do a specific, well-defined thing. ", 3) + "\n"

	chunker := newChunkerRegistry(DefaultPipelineConfig())[StrategyStructuralText]
	chunks := chunker.Chunk(text)

	// The introduction slice is below the noise threshold and is dropped.
	require.Len(t, chunks, 2)
	assert.Equal(t, "Document Overview", chunks[0].Section)
	assert.Equal(t, "2. Requirements", chunks[1].Section)
}

func TestStructuralChunkerNoBoundariesFallsBackToParagraphs(t *testing.T) {
	text := strings.Repeat("just lowercase prose with no headers at all. ", 4) + "\n\n" +
		strings.Repeat("more of the same, still no headers anywhere. ", 4)

	chunker := newChunkerRegistry(DefaultPipelineConfig())[StrategyStructuralText]
	chunks := chunker.Chunk(text)

	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, models.ImportanceStandard, ch.Importance)
		assert.NotEqual(t, "Document Overview", ch.Section)
	}
}

func TestStructuralChunkerSplitsOversizedSection(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.MaxChunkSize = 200

	var body strings.Builder
	for i := 0; i < 10; i++ {
		body.WriteString("A reasonably long paragraph about the system architecture choices.\n\n")
	}
	text := "1. Architecture\n\n" + body.String()

	chunker := newChunkerRegistry(cfg)[StrategyStructuralText]
	chunks := chunker.Chunk(text)

	require.Greater(t, len(chunks), 2)
	for _, ch := range chunks[1:] {
		assert.Equal(t, "1. Architecture", ch.Section)
		// Repeated context header keeps every sub-chunk self-describing.
		assert.True(t, strings.HasPrefix(ch.Text, "1. Architecture"))
	}
}

func TestDetectBoundariesSectionMarkers(t *testing.T) {
	text := "SECTION 2: DEPLOYMENT\n\nDeployment happens every Tuesday without exceptions or ceremony.\n"
	bounds := detectBoundaries(text)
	require.NotEmpty(t, bounds)
	assert.Equal(t, 0, bounds[0].pos)
	assert.Contains(t, bounds[0].title, "SECTION 2")
}

func TestClassifyImportance(t *testing.T) {
	assert.Equal(t, models.ImportanceHigh, classifyImportance("3.1 Functional Requirements"))
	assert.Equal(t, models.ImportanceHigh, classifyImportance("System Architecture"))
	assert.Equal(t, models.ImportanceMedium, classifyImportance("Background"))
	assert.Equal(t, models.ImportanceMedium, classifyImportance("API Design"))
	assert.Equal(t, models.ImportanceStandard, classifyImportance("Appendix B"))
	// High keywords win over medium ones.
	assert.Equal(t, models.ImportanceHigh, classifyImportance("Overview of the Design"))
}
