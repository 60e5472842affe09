package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/technova/supportbot/internal/config"
	"github.com/technova/supportbot/internal/rag"
)

// runAsk answers a single question from the terminal.
func runAsk(args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("usage: supportbot ask <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

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

	result, err := chain.Ask(ctx, []rag.Turn{{Role: rag.RoleUser, Content: question}})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(result.Text)
	if len(result.Citations) > 0 {
		fmt.Println()
		fmt.Println("Källor:")
		for _, c := range result.Citations {
			fmt.Printf("  [%d] %s — %s (%s)\n", c.ID, c.Section, c.Heading, c.Source)
		}
	}
	return nil
}
