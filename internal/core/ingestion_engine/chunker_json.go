package ingestion_engine

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/contextcraft/docpipe/internal/models"
)

// Top-level keys recognized as containers of named entities in a data model.
var entityContainerKeys = []string{"entities", "models", "tables"}

// entityJSONChunker emits entity-aware chunks for JSON data models: a schema
// overview listing all entity names, one chunk per entity definition, and a
// relationships chunk when present — all high importance, so a data model's
// chunk count is deterministic (1 + entities + relationships).
//
// JSON without a recognizable entity container degrades to generic
// size-bounded line splitting.
type entityJSONChunker struct {
	cfg *PipelineConfig
}

func (c *entityJSONChunker) Chunk(payload string) []Chunk {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &top); err != nil {
		// Valid JSON but not an object (array, scalar): treat generically.
		return c.generic(payload)
	}

	entities, containerKey := findEntityContainer(top)
	if entities == nil {
		return c.generic(payload)
	}

	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []Chunk{{
		Text:       "Schema overview. " + containerKey + ": " + strings.Join(names, ", "),
		Section:    "Schema Overview",
		Importance: models.ImportanceHigh,
	}}

	for _, name := range names {
		out = append(out, Chunk{
			Text:       "Entity " + name + ":\n" + prettyJSON(entities[name]),
			Section:    "Entity: " + name,
			Importance: models.ImportanceHigh,
		})
	}

	if rel, ok := top["relationships"]; ok {
		out = append(out, Chunk{
			Text:       "Relationships:\n" + prettyJSON(rel),
			Section:    "Relationships",
			Importance: models.ImportanceHigh,
		})
	}
	return out
}

// generic stringifies the JSON with stable formatting and applies
// size-bounded splitting with the same metadata shape as text chunking.
func (c *entityJSONChunker) generic(payload string) []Chunk {
	text := payload
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
			text = string(pretty)
		}
	}
	if len(text) <= c.cfg.MaxChunkSize {
		return []Chunk{{Text: strings.TrimSpace(text), Section: "Data", Importance: models.ImportanceStandard}}
	}
	chunks := (&lineGroupChunker{cfg: c.cfg}).Chunk(text)
	for i := range chunks {
		chunks[i].Section = "Data"
	}
	return chunks
}

// findEntityContainer returns the first recognized container whose value is
// an object of named definitions.
func findEntityContainer(top map[string]json.RawMessage) (map[string]json.RawMessage, string) {
	for _, key := range entityContainerKeys {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var entities map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entities); err != nil || len(entities) == 0 {
			continue
		}
		return entities, key
	}
	return nil, ""
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}
