package app

import (
	"context"
	"log"
	"time"

	"github.com/contextcraft/docpipe/internal/config"
	db "github.com/contextcraft/docpipe/internal/core/database"
	"github.com/contextcraft/docpipe/internal/core/ingestion_engine"
	"github.com/contextcraft/docpipe/internal/core/llm"
	objectclient "github.com/contextcraft/docpipe/internal/core/object-client"
)

type App struct {
	Store     *db.DatabaseClient
	Embedder  *llm.GeminiEmbedder
	Extractor *llm.GeminiExtractor
	Pipeline  *ingestion_engine.Pipeline
	Server    *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, err
	}

	aiExtractor, err := llm.NewGeminiExtractor(appCtx, cfg.AIAPIKey, cfg.ExtractModel)
	if err != nil {
		return nil, err
	}

	contentExtractor := ingestion_engine.NewContentExtractor(
		store, objClient, aiExtractor, ingestion_engine.NewDocconvExtractor(false),
	)

	pipeCfg := &ingestion_engine.PipelineConfig{
		MaxChunkSize:  cfg.MaxChunkSize,
		MinSectionLen: cfg.MinSectionLen,
		EmbedDim:      cfg.EmbedDim,
		Backoff: ingestion_engine.BackoffPolicy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			RetryDelay:  cfg.RetryFixDelay,
		},
	}
	pipeline := ingestion_engine.NewPipeline(store, embedder, contentExtractor, pipeCfg)

	server := NewServer(cfg, pipeline)

	return &App{
		Store:     store.(*db.DatabaseClient),
		Embedder:  embedder,
		Extractor: aiExtractor,
		Pipeline:  pipeline,
		Server:    server,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.Extractor != nil {
		_ = a.Extractor.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
