// Package llm wraps the Ollama HTTP API behind the two narrow calls the
// rest of the application needs: single-turn text generation and single-text
// embedding. Failures are mapped into CompletionError / EmbeddingError with
// the service's status code and body preserved for diagnosis.
//
// The client performs no retries and no batching; callers invoke it once
// per unit of text and decide themselves how to react to failures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/technova/supportbot/internal/log"
)

// Config holds the Ollama connection and model settings.
type Config struct {
	// Host is the Ollama base URL, e.g. "http://127.0.0.1:11434".
	Host string

	// GenerateModel is the text-generation model name.
	GenerateModel string

	// EmbedModel is the embedding model name.
	EmbedModel string

	// Temperature for generation. Low values keep answers grounded.
	Temperature float32

	// NumPredict bounds the number of generated tokens.
	NumPredict int

	// Timeout bounds each HTTP call. Zero means 120s.
	Timeout time.Duration
}

// Client is an Ollama-backed LLM client.
// It is safe for concurrent use; all state is immutable after construction.
type Client struct {
	ollama *ollama.Client
	cfg    Config
	logger log.Logger
}

// New creates a Client for the given Ollama host.
func New(cfg Config, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	baseURL, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	hc := &http.Client{Timeout: timeout}

	return &Client{
		ollama: ollama.NewClient(baseURL, hc),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Generate runs one non-streaming completion for the given prompt and
// returns the raw response text. Failures come back as *CompletionError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false

	var sb strings.Builder
	err := c.ollama.Generate(ctx, &ollama.GenerateRequest{
		Model:  c.cfg.GenerateModel,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": c.cfg.NumPredict,
		},
	}, func(resp ollama.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", completionError(err)
	}

	c.logger.Debug("completion done", "model", c.cfg.GenerateModel, "response_length", sb.Len())
	return sb.String(), nil
}

// Embed converts one text into its embedding vector.
// A successful response with an empty or missing vector is reported as an
// *EmbeddingError wrapping ErrEmptyEmbedding, distinct from transport errors.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.ollama.Embed(ctx, &ollama.EmbedRequest{
		Model: c.cfg.EmbedModel,
		Input: text,
	})
	if err != nil {
		return nil, embeddingError(err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, &EmbeddingError{Err: ErrEmptyEmbedding}
	}

	return resp.Embeddings[0], nil
}

// completionError maps an Ollama client error to *CompletionError,
// preserving the HTTP status and service message when present.
func completionError(err error) error {
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		return &CompletionError{
			StatusCode: statusErr.StatusCode,
			Message:    statusErr.ErrorMessage,
			Err:        err,
		}
	}
	return &CompletionError{Err: err}
}

// embeddingError maps an Ollama client error to *EmbeddingError.
func embeddingError(err error) error {
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		return &EmbeddingError{
			StatusCode: statusErr.StatusCode,
			Message:    statusErr.ErrorMessage,
			Err:        err,
		}
	}
	return &EmbeddingError{Err: err}
}
