package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/technova/supportbot/internal/config"
	"github.com/technova/supportbot/internal/rag"
)

// runIngest chunks, embeds and indexes the policy document.
// The source file comes from the first positional argument, falling back
// to the configured source_file.
func runIngest() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := cfg.SourceFile
	if len(os.Args) > 2 && os.Args[2] != "" {
		path = os.Args[2]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading source document: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting ingestion", "file", path, "source", cfg.SourceName)

	client, err := newLLMClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	pool, store, err := openKnowledge(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	ingestor := rag.NewIngestor(client, store, rag.IngestConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		BatchSize:    cfg.BatchSize,
		Source:       cfg.SourceName,
		Language:     cfg.Language,
	}, logger)

	inserted, err := ingestor.Run(ctx, string(raw))
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	fmt.Printf("Indexed %d chunks from %s\n", inserted, path)
	return nil
}
