package ingestion_engine

import (
	"regexp"
	"strings"

	"github.com/contextcraft/docpipe/internal/models"
)

// Cue phrases that mark a topic shift inside running prose. A paragraph
// containing one of these starts a fresh chunk even when the size limit has
// not been reached yet.
var topicShiftCues = []string{
	"however,", "on the other hand", "in contrast", "similarly",
	"furthermore,", "moving on", "next,", "additionally,",
	"in summary", "to conclude", "finally,",
}

var (
	reFencedCode    = regexp.MustCompile("(?s)```.*?```")
	reCodeTag       = regexp.MustCompile(`(?s)<code>.*?</code>`)
	reIndentedCode  = regexp.MustCompile(`(?m)^(?:    |\t)\S`)
	reIndentedBlock = regexp.MustCompile(`(?m)(?:^(?:    |\t).+\n?)+`)
	reParagraphSep  = regexp.MustCompile(`\n\s*\n`)
)

// containsCodeBlocks reports whether a slice carries fenced, tagged or
// indented code that the splitter must keep intact.
func containsCodeBlocks(s string) bool {
	return strings.Contains(s, "```") ||
		reCodeTag.MatchString(s) ||
		reIndentedCode.MatchString(s)
}

// textPart is one element of the alternating prose/code walk.
type textPart struct {
	text   string
	isCode bool
}

// splitCodeParts walks a slice as an alternating sequence of prose and code
// parts. Fenced blocks, explicit code tags and contiguous indented-line
// blocks become code parts; everything between them is prose.
func splitCodeParts(s string) []textPart {
	type span struct{ start, end int }
	var spans []span
	overlapsAny := func(start, end int) bool {
		for _, sp := range spans {
			if start < sp.end && end > sp.start {
				return true
			}
		}
		return false
	}

	for _, m := range reFencedCode.FindAllStringIndex(s, -1) {
		spans = append(spans, span{m[0], m[1]})
	}
	for _, m := range reCodeTag.FindAllStringIndex(s, -1) {
		if !overlapsAny(m[0], m[1]) {
			spans = append(spans, span{m[0], m[1]})
		}
	}
	// Indented lines inside a fence already belong to that fence's span.
	for _, m := range reIndentedBlock.FindAllStringIndex(s, -1) {
		if !overlapsAny(m[0], m[1]) {
			spans = append(spans, span{m[0], m[1]})
		}
	}
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].start < spans[j-1].start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}

	var parts []textPart
	cursor := 0
	for _, sp := range spans {
		if sp.start > cursor {
			if prose := s[cursor:sp.start]; strings.TrimSpace(prose) != "" {
				parts = append(parts, textPart{text: prose})
			}
		}
		parts = append(parts, textPart{text: s[sp.start:sp.end], isCode: true})
		cursor = sp.end
	}
	if cursor < len(s) {
		if prose := s[cursor:]; strings.TrimSpace(prose) != "" {
			parts = append(parts, textPart{text: prose})
		}
	}
	return parts
}

// splitWithCodeBlocks splits an oversized section without ever breaking a
// code block across chunk boundaries. Prose accumulates into a buffer led by
// a repeated section-title header; a code block that does not fit the
// current buffer is emitted as its own high-importance chunk, even when it
// alone exceeds the size limit.
func splitWithCodeBlocks(cfg *PipelineConfig, title, text string, imp models.Importance) []Chunk {
	header := title + "\n\n"
	var out []Chunk
	buf := header

	flush := func() {
		if strings.TrimSpace(buf) == strings.TrimSpace(title) || strings.TrimSpace(buf) == "" {
			buf = header
			return
		}
		out = append(out, Chunk{Text: strings.TrimSpace(buf), Section: title, Importance: imp})
		buf = header
	}

	for _, part := range splitCodeParts(text) {
		if part.isCode {
			if len(buf)+len(part.text) <= cfg.MaxChunkSize {
				buf += part.text + "\n"
				continue
			}
			flush()
			out = append(out, Chunk{
				Text:       strings.TrimSpace(header + part.text),
				Section:    title,
				Importance: models.ImportanceHigh,
			})
			continue
		}

		for _, para := range splitParagraphs(part.text) {
			if len(buf)+len(para) > cfg.MaxChunkSize {
				flush()
			}
			buf += para + "\n\n"
		}
	}
	flush()
	return out
}

// splitParagraphGroups accumulates paragraphs up to the size limit, emitting
// each group as one chunk prefixed by the section-title context header so
// every sub-chunk stays self-describing in isolation.
func splitParagraphGroups(cfg *PipelineConfig, title, text string, imp models.Importance) []Chunk {
	header := title + "\n\n"
	var out []Chunk
	buf := header

	flush := func() {
		if strings.TrimSpace(buf) == strings.TrimSpace(title) || strings.TrimSpace(buf) == "" {
			buf = header
			return
		}
		out = append(out, Chunk{Text: strings.TrimSpace(buf), Section: title, Importance: imp})
		buf = header
	}

	for _, para := range splitParagraphs(text) {
		if len(buf)+len(para) > cfg.MaxChunkSize {
			flush()
		}
		buf += para + "\n\n"
	}
	flush()
	return out
}

// splitTopicParagraphs is the fallback for text with no detectable section
// boundaries. Paragraphs accumulate up to the size limit, and a paragraph
// carrying a topic-shift cue forces a flush regardless of size.
func splitTopicParagraphs(cfg *PipelineConfig, text string) []Chunk {
	var out []Chunk
	var buf strings.Builder

	flush := func() {
		if strings.TrimSpace(buf.String()) == "" {
			buf.Reset()
			return
		}
		out = append(out, Chunk{
			Text:       strings.TrimSpace(buf.String()),
			Section:    "",
			Importance: models.ImportanceStandard,
		})
		buf.Reset()
	}

	for _, para := range splitParagraphs(text) {
		if hasTopicShift(para) && buf.Len() > 0 {
			flush()
		}
		if buf.Len()+len(para) > cfg.MaxChunkSize {
			flush()
		}
		buf.WriteString(para)
		buf.WriteString("\n\n")
	}
	flush()

	for i := range out {
		if out[i].Section == "" {
			out[i].Section = synthSectionLabel(i + 1)
		}
	}
	return out
}

func synthSectionLabel(n int) string {
	return "Part " + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func hasTopicShift(para string) bool {
	p := strings.ToLower(para)
	for _, cue := range topicShiftCues {
		if strings.Contains(p, cue) {
			return true
		}
	}
	return false
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range reParagraphSep.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lineGroupOverlap is how many trailing lines of a flushed chunk carry
// forward as context into the next one.
const lineGroupOverlap = 3

// lineGroupChunker is the degraded last resort for JSON-shaped payloads
// that fail to parse: size-bounded line groups with a small fixed overlap
// between consecutive chunks.
type lineGroupChunker struct {
	cfg *PipelineConfig
}

func (c *lineGroupChunker) Chunk(payload string) []Chunk {
	var out []Chunk
	var buf []string
	size := 0
	fresh := 0 // lines added since the last flush, excluding carried overlap

	flush := func() {
		if fresh == 0 {
			return
		}
		out = append(out, Chunk{
			Text:       strings.TrimSpace(strings.Join(buf, "\n")),
			Section:    "Unparsed Data",
			Importance: models.ImportanceStandard,
		})
		keep := buf
		if len(keep) > lineGroupOverlap {
			keep = keep[len(keep)-lineGroupOverlap:]
		}
		buf = append([]string(nil), keep...)
		size = 0
		for _, l := range buf {
			size += len(l) + 1
		}
		fresh = 0
	}

	for _, line := range strings.Split(payload, "\n") {
		if size+len(line) > c.cfg.MaxChunkSize && fresh > 0 {
			flush()
		}
		buf = append(buf, line)
		size += len(line) + 1
		fresh++
	}
	flush()
	return out
}
