package ingestion_engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/models"
)

type fakeStore struct {
	mu             sync.Mutex
	docs           map[string]*models.Document
	chunks         []models.DocumentChunk
	contentUpdates map[string][]byte
	metaUpdates    int
	lockHeld       bool
	failInsertFor  string
	failMetaUpdate bool
}

func newFakeStore(docs ...*models.Document) *fakeStore {
	s := &fakeStore{
		docs:           make(map[string]*models.Document),
		contentUpdates: make(map[string][]byte),
	}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *fakeStore) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return doc, nil
}

func (s *fakeStore) UpdateDocumentContent(_ context.Context, id string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return core.ErrNotFound
	}
	doc.Content = content
	s.contentUpdates[id] = content
	return nil
}

func (s *fakeStore) UpdateDocumentProcessing(_ context.Context, id string, chunkCount int, meta *models.ProcessingMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMetaUpdate {
		return errors.New("metadata update failed")
	}
	doc, ok := s.docs[id]
	if !ok {
		return core.ErrNotFound
	}
	doc.ChunkCount = chunkCount
	doc.ProcessingMeta = meta
	s.metaUpdates++
	return nil
}

func (s *fakeStore) HasChunks(_ context.Context, documentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chunks {
		if ch.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) DeleteChunksByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, ch := range s.chunks {
		if ch.DocumentID != documentID {
			kept = append(kept, ch)
		}
	}
	s.chunks = kept
	return nil
}

func (s *fakeStore) InsertChunk(_ context.Context, chunk *models.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertFor != "" && strings.Contains(chunk.Text, s.failInsertFor) {
		return errors.New("insert failed")
	}
	s.chunks = append(s.chunks, *chunk)
	return nil
}

func (s *fakeStore) GetChunksByDocument(_ context.Context, documentID string) ([]models.DocumentChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DocumentChunk
	for _, ch := range s.chunks {
		if ch.DocumentID == documentID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *fakeStore) TryLockDocument(_ context.Context, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lockHeld, nil
}

func (s *fakeStore) UnlockDocument(_ context.Context, _ string) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) chunksFor(documentID string) []models.DocumentChunk {
	out, _ := s.GetChunksByDocument(context.Background(), documentID)
	return out
}

var _ core.DocumentStore = (*fakeStore)(nil)

type fakeEmbedder struct {
	mu            sync.Mutex
	calls         int
	failSubstring string
}

func (f *fakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failSubstring != "" && strings.Contains(text, f.failSubstring) {
		return nil, errors.New("embedding unavailable")
	}
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedding" }

var _ core.EmbeddingProvider = (*fakeEmbedder)(nil)

type fakeObjects struct {
	mu      sync.Mutex
	files   map[string][]byte // bucket/key
	uploads map[string][]byte
	failGet bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{files: make(map[string][]byte), uploads: make(map[string][]byte)}
}

func (o *fakeObjects) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failGet {
		return nil, errors.New("object fetch failed")
	}
	data, ok := o.files[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (o *fakeObjects) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploads[bucket+"/"+key] = data
	return "https://" + bucket + ".s3.us-east-2.amazonaws.com/" + key, nil
}

func (o *fakeObjects) DeleteFile(_ context.Context, _, _ string) error { return nil }

var _ core.ObjectClient = (*fakeObjects)(nil)

type fakeExtraction struct {
	overview    string
	regions     map[string]string
	failAll     bool
	overviewErr bool
}

func (f *fakeExtraction) StructureOverview(_ context.Context, _ []byte, _ string) (string, error) {
	if f.failAll || f.overviewErr {
		return "", errors.New("extraction service unavailable")
	}
	return f.overview, nil
}

func (f *fakeExtraction) ExtractRegion(_ context.Context, _ []byte, _ string, region string) (string, error) {
	if f.failAll {
		return "", errors.New("extraction service unavailable")
	}
	return f.regions[region], nil
}

var _ core.ExtractionService = (*fakeExtraction)(nil)

type fakeLocal struct {
	text string
	err  error
}

func (f *fakeLocal) ExtractText(_ []byte, _ string) (string, error) {
	return f.text, f.err
}

var _ core.LocalExtractor = (*fakeLocal)(nil)
