// Command bookctl manages the bookshelf library directly against the configured store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bookshelf/internal/app"
	"bookshelf/internal/config"
	"bookshelf/internal/llm"
	"bookshelf/internal/service"
	"bookshelf/internal/vectorstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openService).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// openService loads configuration and builds the same service the API server uses,
// without an event publisher.
func openService(ctx context.Context) (service.BookService, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(app.NewLogger(cfg, os.Stderr))

	repo, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{closeStore}
	closeAll := func() error {
		var first error
		for _, c := range closers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)

	var similar *service.SimilarIndex
	if cfg.SimilarEnabled() {
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, qdrantStore.Close)
		if err := qdrantStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
			slog.Warn("Similar books unavailable", "error", err)
		} else {
			embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize, cfg.LLMTimeout)
			similar = service.NewSimilarIndex(qdrantStore, embedder, cfg.QdrantCollection)
		}
	}

	return service.NewBookService(repo, llmClient, similar, nil), closeAll, nil
}
