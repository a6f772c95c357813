package core

import (
	"context"

	"github.com/contextcraft/docpipe/internal/models"
)

// DocumentStore defines all persistence operations the pipeline needs.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DocumentStore interface {
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	UpdateDocumentContent(ctx context.Context, id string, content []byte) error
	UpdateDocumentProcessing(ctx context.Context, id string, chunkCount int, meta *models.ProcessingMeta) error

	HasChunks(ctx context.Context, documentID string) (bool, error)
	DeleteChunksByDocument(ctx context.Context, documentID string) error
	InsertChunk(ctx context.Context, chunk *models.DocumentChunk) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)

	// TryLockDocument takes a session-scoped advisory lock for the document,
	// returning false without error when another run already holds it.
	TryLockDocument(ctx context.Context, documentID string) (bool, error)
	UnlockDocument(ctx context.Context, documentID string) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteFile(ctx context.Context, bucket, key string) error
}
