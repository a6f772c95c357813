package models

import (
	"encoding/json"
	"time"
)

// DocumentType is the closed set of declared document types.
type DocumentType string

const (
	DocTypeDataModel          DocumentType = "data-model"
	DocTypeSystemRequirements DocumentType = "system-requirements"
	DocTypeCodingGuidelines   DocumentType = "coding-guidelines"
	DocTypeTechnicalDesign    DocumentType = "technical-design"
	DocTypeOther              DocumentType = "other"
)

// Importance is a coarse heuristic rank attached to a chunk to bias
// downstream retrieval ranking.
type Importance string

const (
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceStandard Importance = "standard"
)

// Document represents a project document owned by external collaborators.
// The pipeline reads it and updates only the processing-owned fields
// (Content after extraction, ProcessedAt, ChunkCount, ProcessingMeta).
type Document struct {
	ID             string          `db:"id" json:"id"`
	ProjectID      string          `db:"project_id" json:"project_id"`
	Name           string          `db:"name" json:"name"`
	DocType        DocumentType    `db:"doc_type" json:"doc_type"`
	Content        json.RawMessage `db:"content" json:"content,omitempty"` // JSON value or JSON-encoded string; nil when only a file reference exists
	FileURL        string          `db:"file_url" json:"file_url,omitempty"`
	FileType       string          `db:"file_type" json:"file_type,omitempty"`
	ProcessedAt    *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	ChunkCount     int             `db:"chunk_count" json:"chunk_count"`
	ProcessingMeta *ProcessingMeta `db:"processing_meta" json:"processing_meta,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ProcessingMeta summarizes the last processing run of a document.
type ProcessingMeta struct {
	SuccessRate    float64   `json:"success_rate"`
	TotalChunks    int       `json:"total_chunks"`
	EmbeddingModel string    `json:"embedding_model"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// DocumentChunk is one embedded slice of a document, fully owned by the
// pipeline. ChunkIndex values for a document form a contiguous 0..N-1
// sequence in emission order.
type DocumentChunk struct {
	ID            string       `db:"id" json:"id"`
	DocumentID    string       `db:"document_id" json:"document_id"`
	ProjectID     string       `db:"project_id" json:"project_id"`
	DocType       DocumentType `db:"doc_type" json:"doc_type"`
	Text          string       `db:"text" json:"text"`
	ChunkIndex    int          `db:"chunk_index" json:"chunk_index"`
	Embedding     []float32    `db:"embedding" json:"embedding"` // pgvector column
	DocumentName  string       `db:"document_name" json:"document_name"`
	Section       string       `db:"section" json:"section"`
	Importance    Importance   `db:"importance" json:"importance"`
	CharCount     int          `db:"char_count" json:"char_count"`
	WordCount     int          `db:"word_count" json:"word_count"`
	PositionRatio float64      `db:"position_ratio" json:"position_ratio"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
