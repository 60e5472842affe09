// Package cmd provides the supportbot CLI commands.
//
// Commands:
//   - serve: HTTP API server answering support questions
//   - ingest: chunk, embed and index the policy document
//   - ask: answer a single question from the terminal
//
// Signal handling and graceful shutdown are implemented for all
// long-running commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/technova/supportbot/internal/log"
)

// Execute is the main entry point for the supportbot CLI.
func Execute() error {
	// A .env in the working directory supplies local overrides; absence
	// is not an error.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.NewWithWriter(os.Stderr, log.Config{Level: level}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ingest":
		return runIngest()
	case "ask":
		return runAsk(os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("supportbot - TechNova AB customer support assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  supportbot serve [addr]      Start HTTP API server (default: 127.0.0.1:8787)")
	fmt.Println("  supportbot ingest [file]     Index the policy document into the knowledge base")
	fmt.Println("  supportbot ask <question>    Answer a single question from the terminal")
	fmt.Println("  supportbot --version         Show version information")
	fmt.Println("  supportbot --help            Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OLLAMA_BASE_URL              Ollama host (default: http://127.0.0.1:11434)")
	fmt.Println("  OLLAMA_MODEL                 Generation model")
	fmt.Println("  EMBED_MODEL                  Embedding model")
	fmt.Println("  DATABASE_URL                 PostgreSQL connection URL")
	fmt.Println("  DEBUG                        Enable debug logging")
}
