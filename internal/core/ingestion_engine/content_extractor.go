package ingestion_engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/models"
	objectclient "github.com/contextcraft/docpipe/internal/core/object-client"
)

// Regions covered by the second extraction phase, in document order.
var extractionRegions = []string{"beginning", "middle", "end"}

// ContentExtractor resolves a document's raw bytes/fields into one
// classified payload. Extraction failures degrade to a placeholder payload
// instead of aborting: a low-value chunk beats losing the document.
type ContentExtractor struct {
	store   core.DocumentStore
	objects core.ObjectClient
	ai      core.ExtractionService
	local   core.LocalExtractor
}

func NewContentExtractor(store core.DocumentStore, objects core.ObjectClient, ai core.ExtractionService, local core.LocalExtractor) *ContentExtractor {
	return &ContentExtractor{store: store, objects: objects, ai: ai, local: local}
}

// Resolve applies the extraction rules in priority order: inline content,
// then a binary file reference (two-phase AI extraction), then a JSON file
// reference, then a placeholder naming the document.
func (e *ContentExtractor) Resolve(ctx context.Context, doc *models.Document, fileURL, fileType string) core.Content {
	if len(doc.Content) > 0 {
		return resolveInline(doc)
	}

	if fileURL == "" {
		fileURL = doc.FileURL
	}
	if fileType == "" {
		fileType = doc.FileType
	}

	switch {
	case fileURL != "" && isBinaryDocType(fileType):
		if content, ok := e.extractBinary(ctx, doc, fileURL, fileType); ok {
			return content
		}
	case fileURL != "" && isJSONType(fileType):
		if content, ok := e.fetchJSON(ctx, doc, fileURL); ok {
			return content
		}
	}

	return core.TextContent(placeholder(doc, fileURL, fileType))
}

// resolveInline classifies content already stored on the document: a JSON
// string is text, an object or array is structured, and anything else is
// coerced to a string.
func resolveInline(doc *models.Document) core.Content {
	var v any
	if err := json.Unmarshal(doc.Content, &v); err != nil {
		// Not valid JSON; the column held raw text.
		return core.TextContent(string(doc.Content))
	}
	switch v.(type) {
	case string:
		var s string
		_ = json.Unmarshal(doc.Content, &s)
		return core.TextContent(s)
	case map[string]any, []any:
		return core.StructuredContent(doc.Content)
	default:
		log.Printf("WARN: document %s has unexpected content shape, coercing to text", doc.ID)
		return core.TextContent(fmt.Sprintf("%v", v))
	}
}

// extractBinary runs the two-phase AI extraction over fetched file bytes:
// a structure overview first, then beginning/middle/end region extractions,
// concatenated into one text payload. The extracted text is written back to
// the document so later runs skip re-extraction, and a plain-text artifact
// is stashed next to the original object, best-effort.
func (e *ContentExtractor) extractBinary(ctx context.Context, doc *models.Document, fileURL, fileType string) (core.Content, bool) {
	data, err := e.fetch(ctx, fileURL)
	if err != nil {
		log.Printf("WARN: fetch %s for document %s: %v", fileURL, doc.ID, err)
		return core.Content{}, false
	}

	mime := mimeForType(fileType)
	var parts []string

	overview, err := e.ai.StructureOverview(ctx, data, mime)
	if err != nil {
		log.Printf("WARN: structure overview for document %s: %v", doc.ID, err)
	} else if strings.TrimSpace(overview) != "" {
		parts = append(parts, strings.TrimSpace(overview))
	}

	extracted := 0
	for _, region := range extractionRegions {
		seg, err := e.ai.ExtractRegion(ctx, data, mime, region)
		if err != nil {
			log.Printf("WARN: extract %s of document %s: %v", region, doc.ID, err)
			continue
		}
		if strings.TrimSpace(seg) != "" {
			parts = append(parts, strings.TrimSpace(seg))
			extracted++
		}
	}

	if extracted == 0 {
		// The AI path produced nothing; try a local conversion before
		// giving up on this file.
		if e.local != nil {
			if text, lerr := e.local.ExtractText(data, mime); lerr == nil && strings.TrimSpace(text) != "" {
				parts = []string{strings.TrimSpace(text)}
			} else if lerr != nil {
				log.Printf("WARN: local extraction for document %s: %v", doc.ID, lerr)
			}
		}
		if len(parts) == 0 || (len(parts) == 1 && parts[0] == strings.TrimSpace(overview)) {
			return core.Content{}, false
		}
	}

	text := strings.Join(parts, "\n\n")
	e.persistText(ctx, doc, fileURL, text)
	return core.TextContent(text), true
}

// fetchJSON fetches a JSON-typed file reference, validates it and persists
// the parsed value back onto the document.
func (e *ContentExtractor) fetchJSON(ctx context.Context, doc *models.Document, fileURL string) (core.Content, bool) {
	data, err := e.fetch(ctx, fileURL)
	if err != nil {
		log.Printf("WARN: fetch %s for document %s: %v", fileURL, doc.ID, err)
		return core.Content{}, false
	}
	if !json.Valid(data) {
		log.Printf("WARN: document %s file %s is not valid JSON", doc.ID, fileURL)
		return core.Content{}, false
	}
	if err := e.store.UpdateDocumentContent(ctx, doc.ID, data); err != nil {
		log.Printf("WARN: persist fetched JSON for document %s: %v", doc.ID, err)
	}
	return core.StructuredContent(json.RawMessage(data)), true
}

func (e *ContentExtractor) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	bucket, key := objectclient.ParseObjectURL(fileURL)
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("cannot parse object url %q", fileURL)
	}
	return e.objects.GetFile(ctx, bucket, key)
}

// persistText writes extracted text back to the document's content column
// and uploads a plain-text artifact alongside the original object. Both are
// best-effort.
func (e *ContentExtractor) persistText(ctx context.Context, doc *models.Document, fileURL, text string) {
	encoded, err := json.Marshal(text)
	if err == nil {
		if err := e.store.UpdateDocumentContent(ctx, doc.ID, encoded); err != nil {
			log.Printf("WARN: persist extracted text for document %s: %v", doc.ID, err)
		}
	}

	bucket, key := objectclient.ParseObjectURL(fileURL)
	if bucket == "" || key == "" {
		return
	}
	if _, err := e.objects.UploadFile(ctx, bucket, key+".extracted.txt", []byte(text), "text/plain"); err != nil {
		log.Printf("WARN: upload extracted-text artifact for document %s: %v", doc.ID, err)
	}
}

func placeholder(doc *models.Document, fileURL, fileType string) string {
	return fmt.Sprintf("Document %q (type %s) could not be extracted. Source: %s (%s).",
		doc.Name, doc.DocType, fileURL, fileType)
}

func isBinaryDocType(fileType string) bool {
	t := strings.ToLower(fileType)
	return strings.Contains(t, "pdf") ||
		strings.Contains(t, "msword") ||
		strings.Contains(t, "officedocument") ||
		strings.Contains(t, "octet-stream")
}

func isJSONType(fileType string) bool {
	return strings.Contains(strings.ToLower(fileType), "json")
}

func mimeForType(fileType string) string {
	t := strings.ToLower(fileType)
	if strings.Contains(t, "/") {
		return t
	}
	switch t {
	case "pdf":
		return "application/pdf"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
