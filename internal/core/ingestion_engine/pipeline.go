package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/models"
)

// ProcessRequest is the single RPC-style invocation of the pipeline.
// FileURL/FileType/ProjectID override the stored document's fields when set.
type ProcessRequest struct {
	DocumentID     string `json:"documentId"`
	FileURL        string `json:"fileUrl,omitempty"`
	FileType       string `json:"fileType,omitempty"`
	ProjectID      string `json:"projectId,omitempty"`
	ForceReprocess bool   `json:"forceReprocess,omitempty"`
}

// ProcessResult is the summary returned to the caller. Partial chunk
// failures show up as SuccessfulChunks < TotalChunks, never as an overall
// failure.
type ProcessResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	DocumentID       string `json:"documentId,omitempty"`
	TotalChunks      int    `json:"totalChunks,omitempty"`
	SuccessfulChunks int    `json:"successfulChunks,omitempty"`
	Skipped          bool   `json:"skipped,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ChunkOutcome is the per-chunk result of the embed-and-persist fan-out.
type ChunkOutcome struct {
	Index int
	Err   error
}

// Pipeline runs the full processing flow for one document: idempotency
// gate, content extraction, strategy routing, semantic chunking, per-chunk
// embedding with retries, and persistence.
type Pipeline struct {
	store     core.DocumentStore
	embedder  core.EmbeddingProvider
	extractor *ContentExtractor
	chunkers  map[Strategy]Chunker
	cfg       *PipelineConfig
	sleep     SleepFunc
}

func NewPipeline(store core.DocumentStore, embedder core.EmbeddingProvider, extractor *ContentExtractor, cfg *PipelineConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultPipelineConfig()
	}
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		chunkers:  newChunkerRegistry(cfg),
		cfg:       cfg,
		sleep:     DefaultSleep,
	}
}

// Process runs the synchronous pipeline for one document. Fatal errors
// (unknown document, blank payload) return an error; extraction problems
// degrade to a placeholder payload and per-chunk failures only reduce the
// successful count.
func (p *Pipeline) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	doc, err := p.store.GetDocumentByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	// The advisory lock narrows the gate's check-then-act race between
	// concurrent runs. A run that cannot take the lock reports skipped.
	locked, err := p.store.TryLockDocument(ctx, req.DocumentID)
	if err != nil {
		log.Printf("WARN: advisory lock for document %s: %v", req.DocumentID, err)
	} else if !locked {
		return skippedResult(req.DocumentID, "processing already in flight"), nil
	}
	if locked {
		defer func() {
			if err := p.store.UnlockDocument(context.WithoutCancel(ctx), req.DocumentID); err != nil {
				log.Printf("WARN: release lock for document %s: %v", req.DocumentID, err)
			}
		}()
	}

	if req.ForceReprocess {
		if err := p.store.DeleteChunksByDocument(ctx, req.DocumentID); err != nil {
			return nil, fmt.Errorf("delete stale chunks: %w", err)
		}
	} else {
		exists, err := p.store.HasChunks(ctx, req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("chunk existence check: %w", err)
		}
		if exists {
			return skippedResult(req.DocumentID, "document already processed"), nil
		}
	}

	content := p.extractor.Resolve(ctx, doc, req.FileURL, req.FileType)
	if content.IsBlank() {
		return nil, core.ErrEmptyContent
	}

	strategy := Classify(content, doc.DocType)
	chunks := p.chunkers[strategy].Chunk(content.Raw())
	if len(chunks) == 0 {
		// Degenerate payloads still produce one retrievable chunk.
		chunks = []Chunk{{Text: content.Raw(), Section: "Document", Importance: models.ImportanceStandard}}
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = doc.ProjectID
	}

	outcomes := p.embedAndPersist(ctx, doc, projectID, chunks)

	successful := 0
	for _, o := range outcomes {
		if o.Err == nil {
			successful++
		} else {
			log.Printf("WARN: chunk %d of document %s failed: %v", o.Index, doc.ID, o.Err)
		}
	}

	meta := &models.ProcessingMeta{
		SuccessRate:    float64(successful) / float64(len(chunks)),
		TotalChunks:    len(chunks),
		EmbeddingModel: p.embedder.ModelName(),
		ProcessedAt:    time.Now().UTC(),
	}
	if err := p.store.UpdateDocumentProcessing(ctx, doc.ID, successful, meta); err != nil {
		// Chunks are already durable; the summary row is best-effort.
		log.Printf("WARN: update processing metadata for document %s: %v", doc.ID, err)
	}

	return &ProcessResult{
		Success:          true,
		Message:          fmt.Sprintf("processed %d/%d chunks", successful, len(chunks)),
		DocumentID:       doc.ID,
		TotalChunks:      len(chunks),
		SuccessfulChunks: successful,
	}, nil
}

// embedAndPersist fans out one goroutine per chunk. Each goroutine embeds
// its chunk with retries and writes its row independently; a failure is
// recorded in the outcome without blocking or canceling the siblings.
func (p *Pipeline) embedAndPersist(ctx context.Context, doc *models.Document, projectID string, chunks []Chunk) []ChunkOutcome {
	outcomes := make([]ChunkOutcome, len(chunks))
	total := len(chunks)

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range chunks {
		g.Go(func() error {
			outcomes[i] = ChunkOutcome{Index: i, Err: p.processChunk(gctx, doc, projectID, ch, i, total)}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (p *Pipeline) processChunk(ctx context.Context, doc *models.Document, projectID string, ch Chunk, index, total int) error {
	vec, err := embedWithRetry(ctx, p.embedder, p.cfg.Backoff, p.sleep, ch.Text)
	if err != nil {
		return err
	}
	if p.cfg.EmbedDim > 0 && len(vec) != p.cfg.EmbedDim {
		return fmt.Errorf("embedding dimension mismatch: got %d want %d", len(vec), p.cfg.EmbedDim)
	}

	row := &models.DocumentChunk{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		ProjectID:     projectID,
		DocType:       doc.DocType,
		Text:          ch.Text,
		ChunkIndex:    index,
		Embedding:     vec,
		DocumentName:  doc.Name,
		Section:       ch.Section,
		Importance:    ch.Importance,
		CharCount:     len(ch.Text),
		WordCount:     countWords(ch.Text),
		PositionRatio: float64(index) / float64(total),
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.store.InsertChunk(ctx, row); err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

func skippedResult(documentID, message string) *ProcessResult {
	return &ProcessResult{
		Success:    true,
		Message:    message,
		DocumentID: documentID,
		Skipped:    true,
	}
}
