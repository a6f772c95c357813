package ingestion_engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/contextcraft/docpipe/internal/models"
)

// Section-boundary detectors, run in order over the whole text. All matches
// are collected and sorted by position, so a document may mix styles.
var (
	// "1.2.3 Title" style numbered headers.
	reNumberedHeader = regexp.MustCompile(`(?m)^[ \t]{0,3}\d+(?:\.\d+)*[.)]?[ \t]+\S[^\n]{0,120}$`)
	// Markdown headers.
	reMarkdownHeader = regexp.MustCompile(`(?m)^#{1,6}[ \t]+[^\n]+$`)
	// Explicit "SECTION 2: Title" markers.
	reSectionMarker = regexp.MustCompile(`(?m)^[ \t]*SECTION[ \t]+\d+[:.][ \t]*[^\n]*$`)
	// All-caps standalone section lines.
	reUppercaseHeader = regexp.MustCompile(`(?m)^[A-Z][A-Z0-9 ,\-]{3,79}$`)
	// Common section vocabulary at the start of a line.
	reVocabHeader = regexp.MustCompile(`(?mi)^(?:introduction|background|methodology|requirements|conclusion|references|summary|overview|appendix)\b[^\n]*$`)
)

var boundaryDetectors = []*regexp.Regexp{
	reNumberedHeader,
	reMarkdownHeader,
	reSectionMarker,
	reUppercaseHeader,
	reVocabHeader,
}

type sectionBoundary struct {
	pos   int
	title string
}

// detectBoundaries runs every detector and returns the deduplicated matches
// sorted by position.
func detectBoundaries(text string) []sectionBoundary {
	seen := make(map[int]bool)
	var out []sectionBoundary
	for _, re := range boundaryDetectors {
		for _, m := range re.FindAllStringIndex(text, -1) {
			if seen[m[0]] {
				continue
			}
			seen[m[0]] = true
			title := strings.TrimSpace(text[m[0]:m[1]])
			title = strings.TrimLeft(title, "# ")
			out = append(out, sectionBoundary{pos: m[0], title: title})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

// structuralTextChunker splits free text along detected section boundaries,
// emitting a document-overview chunk first and splitting oversized sections
// further without breaking code blocks.
type structuralTextChunker struct {
	cfg *PipelineConfig
}

func (c *structuralTextChunker) Chunk(payload string) []Chunk {
	boundaries := detectBoundaries(payload)
	if len(boundaries) == 0 {
		return splitTopicParagraphs(c.cfg, payload)
	}

	titles := make([]string, len(boundaries))
	for i, b := range boundaries {
		titles[i] = b.title
	}
	out := []Chunk{{
		Text:       "Document overview. Sections: " + strings.Join(titles, "; "),
		Section:    "Document Overview",
		Importance: models.ImportanceHigh,
	}}

	for i, b := range boundaries {
		end := len(payload)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].pos
		}
		slice := strings.TrimSpace(payload[b.pos:end])
		if len(slice) < c.cfg.MinSectionLen {
			continue
		}

		imp := classifyImportance(b.title)
		if len(slice) <= c.cfg.MaxChunkSize {
			out = append(out, Chunk{Text: slice, Section: b.title, Importance: imp})
			continue
		}
		if containsCodeBlocks(slice) {
			out = append(out, splitWithCodeBlocks(c.cfg, b.title, slice, imp)...)
		} else {
			out = append(out, splitParagraphGroups(c.cfg, b.title, slice, imp)...)
		}
	}
	return out
}
