package core

import "encoding/json"

// ContentKind discriminates the resolved payload of a document.
type ContentKind int

const (
	// ContentMissing means nothing usable could be resolved.
	ContentMissing ContentKind = iota
	// ContentText is free text (inline, extracted from a file, or a placeholder).
	ContentText
	// ContentStructured is a JSON value (inline or fetched from a JSON file).
	ContentStructured
)

// Content is the tagged variant produced by the content extractor. Every
// later stage switches on Kind instead of re-inspecting raw bytes.
type Content struct {
	Kind       ContentKind
	Text       string
	Structured json.RawMessage
}

// TextContent wraps free text as a resolved payload.
func TextContent(s string) Content {
	return Content{Kind: ContentText, Text: s}
}

// StructuredContent wraps a JSON value as a resolved payload.
func StructuredContent(raw json.RawMessage) Content {
	return Content{Kind: ContentStructured, Structured: raw}
}

// Raw returns the payload as a plain string regardless of kind.
func (c Content) Raw() string {
	if c.Kind == ContentStructured {
		return string(c.Structured)
	}
	return c.Text
}

// IsBlank reports whether the payload has no chunkable content.
func (c Content) IsBlank() bool {
	switch c.Kind {
	case ContentText:
		return isBlank(c.Text)
	case ContentStructured:
		return len(c.Structured) == 0 || isBlank(string(c.Structured))
	default:
		return true
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
