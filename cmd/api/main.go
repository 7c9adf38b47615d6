package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"geoguru/internal/blob"
	"geoguru/internal/config"
	"geoguru/internal/handlers"
	"geoguru/internal/http"
	"geoguru/internal/ingest"
	"geoguru/internal/llm"
	"geoguru/internal/rag"
	"geoguru/internal/retrieval"
	"geoguru/internal/session"
	"geoguru/internal/storage"
	"geoguru/internal/tts"
	"geoguru/internal/vectorindex"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	revisionRepo := storage.NewRevisionRepo(db)
	userRepo := storage.NewUserRepo(db)
	settingsRepo := storage.NewSettingsRepo(db)

	ctx := context.Background()

	// Session store
	sessions, err := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	slog.Info("Session store ready", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)

	// Blob store for raw uploads
	blobs, err := blob.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		log.Fatalf("Failed to ensure bucket: %v", err)
	}
	slog.Info("Blob store ready", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)

	// Vector index is optional: retrieval scores candidates locally when it
	// is unavailable, with identical results.
	var index vectorindex.Index
	qdrant, err := vectorindex.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection)
	if err != nil {
		slog.Warn("Vector index unavailable, using brute-force retrieval", "error", err)
	} else if err := qdrant.EnsureCollection(ctx, cfg.EmbeddingVectorSize); err != nil {
		slog.Warn("Vector index unavailable, using brute-force retrieval", "error", err)
	} else {
		index = qdrant
		slog.Info("Vector index ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURLs, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)

	pipeline := ingest.NewPipeline(documentRepo, chunkRepo, embedder, index, cfg.ChunkWindowWords, cfg.ChunkOverlapWords)
	engine := retrieval.NewEngine(chunkRepo, index)
	assembler := rag.NewAssembler()
	validator := llm.NewValidator()
	ttsClient := tts.NewClient()
	slog.Info("Retrieval engine initialized", "top_k", cfg.RetrievalTopK)

	deps := &http.Deps{
		Sessions: sessions,
		Auth:     handlers.NewAuthHandler(userRepo, sessions),
		Revision: handlers.NewRevisionHandler(revisionRepo),
		Settings: handlers.NewSettingsHandler(settingsRepo, validator),
		AI:       handlers.NewAIHandler(settingsRepo, revisionRepo),
		Documents: handlers.NewDocumentsHandler(
			documentRepo,
			chunkRepo,
			settingsRepo,
			blobs,
			pipeline,
			engine,
			assembler,
			embedder,
			index,
			cfg.RetrievalTopK,
		),
		TTS: handlers.NewTTSHandler(settingsRepo, ttsClient),
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
