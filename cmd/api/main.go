package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/app"
	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	"bookshelf/internal/events"
	"bookshelf/internal/http"
	"bookshelf/internal/llm"
	"bookshelf/internal/service"
	"bookshelf/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API manages a personal book library kept in a Google Sheet, where a book's id is its row.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Bookshelf API
//   description: |
//     Personal library API backed by a spreadsheet. Books can be listed, searched, added,
//     removed and moved between reading statuses. Removing a book renumbers the books below it.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json
// securityDefinitions:
//   session:
//     type: apiKey
//     in: header
//     name: Authorization

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid server configuration: %v", err)
	}

	slog.SetDefault(app.NewLogger(cfg, os.Stdout))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bookRepo, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open book store: %v", err)
	}
	defer func() {
		_ = closeStore()
	}()

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)

	var (
		similar     *service.SimilarIndex
		vectorStore vectorstore.VectorStore
	)
	if cfg.SimilarEnabled() {
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = qdrantStore.Close()
		}()

		// Ensure collection exists with correct vector size
		if err := qdrantStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

		// Validate embedding client vector size (fail-fast)
		embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize, cfg.LLMTimeout)
		testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
		if err != nil {
			log.Fatalf("Failed to validate embedding client: %v", err)
		}
		if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
			log.Fatalf("Embedding vector size mismatch: expected %d", cfg.QdrantVectorSize)
		}
		slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

		similar = service.NewSimilarIndex(qdrantStore, embedder, cfg.QdrantCollection)
		vectorStore = qdrantStore
	} else {
		slog.Info("Similar books disabled, QDRANT_URL not set")
	}

	authenticator, err := auth.New(auth.Config{
		PasswordHash:  cfg.AppPasswordHash,
		Password:      cfg.AppPassword,
		Secret:        cfg.JWTSecret,
		TTL:           cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
	})
	if err != nil {
		log.Fatalf("Failed to configure authentication: %v", err)
	}

	hub := events.NewHub()
	go hub.Run(ctx)

	bookService := service.NewBookService(bookRepo, llmClient, similar, hub)

	// Create router with dependencies
	deps := &http.Deps{
		BookService:    bookService,
		Auth:           authenticator,
		Hub:            hub,
		VectorStore:    vectorStore,
		CollectionName: cfg.QdrantCollection,
		AllowedOrigins: cfg.CORSOrigins,
	}
	router := http.NewRouter(deps)

	// Build the similar-books index in background after router is ready
	if similar != nil {
		go func() {
			slog.Info("Starting background indexing of books")
			if err := bookService.Reindex(ctx); err != nil {
				slog.Error("Indexing completed with errors", "error", err)
			} else {
				slog.Info("Indexing completed successfully")
			}
		}()
	}

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr, "store", cfg.StoreBackend)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
