package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/technova/supportbot/internal/api"
	"github.com/technova/supportbot/internal/config"
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr, err := parseServeAddr(os.Args[2:], cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting HTTP API server", "version", Version)

	client, err := newLLMClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	pool, store, err := openKnowledge(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	chain := buildChain(client, store, cfg, logger)

	srv, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Asker:       chain,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
		LLMTimeout:  time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return srv.Run(ctx, addr, logger)
}
