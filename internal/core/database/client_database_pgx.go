package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/contextcraft/docpipe/internal/config"
	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/models"
)

type DatabaseClient struct {
	db *sql.DB

	// Advisory locks are connection-scoped, so each held lock pins the
	// connection it was taken on until released.
	mu        sync.Mutex
	lockConns map[string]*sql.Conn
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DocumentStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db, lockConns: make(map[string]*sql.Conn)}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, project_id, name, doc_type, content, file_url, file_type,
		       processed_at, chunk_count, processing_meta, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var (
		d        models.Document
		content  []byte
		fileURL  sql.NullString
		fileType sql.NullString
		procAt   sql.NullTime
		meta     []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.ProjectID, &d.Name, &d.DocType, &content, &fileURL, &fileType,
		&procAt, &d.ChunkCount, &meta, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		d.Content = json.RawMessage(content)
	}
	d.FileURL = fileURL.String
	d.FileType = fileType.String
	if procAt.Valid {
		t := procAt.Time
		d.ProcessedAt = &t
	}
	if len(meta) > 0 {
		var pm models.ProcessingMeta
		if err := json.Unmarshal(meta, &pm); err == nil {
			d.ProcessingMeta = &pm
		}
	}
	return &d, nil
}

func (c *DatabaseClient) UpdateDocumentContent(ctx context.Context, id string, content []byte) error {
	const q = `
		UPDATE documents
		SET content = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, content)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *DatabaseClient) UpdateDocumentProcessing(ctx context.Context, id string, chunkCount int, meta *models.ProcessingMeta) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal processing meta: %w", err)
	}
	const q = `
		UPDATE documents
		SET processed_at = now(), chunk_count = $2, processing_meta = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, chunkCount, metaJSON)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *DatabaseClient) HasChunks(ctx context.Context, documentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM document_chunks WHERE document_id = $1)`
	var exists bool
	if err := c.db.QueryRowContext(ctx, q, documentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (c *DatabaseClient) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	const q = `DELETE FROM document_chunks WHERE document_id = $1`
	_, err := c.db.ExecContext(ctx, q, documentID)
	return err
}

// InsertChunk writes a single chunk row. Chunk inserts are deliberately
// independent of each other; a failed sibling never rolls this one back.
func (c *DatabaseClient) InsertChunk(ctx context.Context, ch *models.DocumentChunk) error {
	if ch == nil {
		return errors.New("nil chunk")
	}
	const q = `
		INSERT INTO document_chunks
			(id, document_id, project_id, doc_type, text, chunk_index, embedding,
			 document_name, section, importance, char_count, word_count, position_ratio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, now()))
	`
	vec := pgvector.NewVector(ch.Embedding)
	_, err := c.db.ExecContext(ctx, q,
		ch.ID, ch.DocumentID, ch.ProjectID, ch.DocType, ch.Text, ch.ChunkIndex, vec,
		ch.DocumentName, ch.Section, ch.Importance, ch.CharCount, ch.WordCount, ch.PositionRatio, ch.CreatedAt,
	)
	return err
}

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, project_id, doc_type, text, chunk_index, embedding,
		       document_name, section, importance, char_count, word_count, position_ratio, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch  models.DocumentChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.ProjectID, &ch.DocType, &ch.Text, &ch.ChunkIndex, &emb,
			&ch.DocumentName, &ch.Section, &ch.Importance, &ch.CharCount, &ch.WordCount, &ch.PositionRatio, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}
