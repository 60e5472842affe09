package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/technova/supportbot/db"
	"github.com/technova/supportbot/internal/config"
	"github.com/technova/supportbot/internal/database"
	"github.com/technova/supportbot/internal/knowledge"
	"github.com/technova/supportbot/internal/llm"
	"github.com/technova/supportbot/internal/log"
	"github.com/technova/supportbot/internal/rag"
)

// openKnowledge runs migrations and opens the chunk store.
// The caller owns the returned pool and must Close it.
func openKnowledge(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, *knowledge.Store, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Open(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := knowledge.New(knowledge.NewPgxQuerier(pool), logger)
	return pool, store, nil
}

// newLLMClient builds the Ollama client from configuration.
func newLLMClient(cfg *config.Config, logger log.Logger) (*llm.Client, error) {
	return llm.New(llm.Config{
		Host:          cfg.OllamaHost,
		GenerateModel: cfg.GenerateModel,
		EmbedModel:    cfg.EmbedModel,
		Temperature:   cfg.Temperature,
		NumPredict:    cfg.NumPredict,
		Timeout:       time.Duration(cfg.LLMTimeoutSec) * time.Second,
	}, logger)
}

// buildChain wires the question-answering pipeline.
func buildChain(client *llm.Client, store *knowledge.Store, cfg *config.Config, logger log.Logger) *rag.Chain {
	gate := rag.NewLLMGate(client, logger)
	synth := rag.NewSynthesizer(client, logger)
	return rag.NewChain(gate, client, store, synth, cfg.TopK, logger)
}
