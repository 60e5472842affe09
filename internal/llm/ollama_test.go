package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/technova/supportbot/internal/log"
)

// fakeOllama serves the two Ollama endpoints the client uses.
type fakeOllama struct {
	generateStatus int
	generateBody   any
	embedStatus    int
	embedBody      any

	generateCalls int
	embedCalls    int
	lastPrompt    string
	lastInput     any
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, r *http.Request) {
		f.generateCalls++
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.lastPrompt, _ = req["prompt"].(string)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.generateStatus)
		_ = json.NewEncoder(w).Encode(f.generateBody)
	})
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		f.embedCalls++
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.lastInput = req["input"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.embedStatus)
		_ = json.NewEncoder(w).Encode(f.embedBody)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeOllama) *Client {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Host:          srv.URL,
		GenerateModel: "qwen2.5:7b-instruct",
		EmbedModel:    "nomic-embed-text",
		Temperature:   0.2,
		NumPredict:    512,
	}, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestGenerate(t *testing.T) {
	f := &fakeOllama{
		generateStatus: http.StatusOK,
		generateBody:   map[string]any{"model": "qwen2.5:7b-instruct", "response": "JA", "done": true},
	}
	c := newTestClient(t, f)

	got, err := c.Generate(context.Background(), "Svara endast JA eller NEJ.")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "JA" {
		t.Errorf("Generate() = %q, want JA", got)
	}
	if f.lastPrompt != "Svara endast JA eller NEJ." {
		t.Errorf("prompt sent = %q", f.lastPrompt)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	f := &fakeOllama{
		generateStatus: http.StatusInternalServerError,
		generateBody:   map[string]any{"error": "model not loaded"},
	}
	c := newTestClient(t, f)

	_, err := c.Generate(context.Background(), "fråga")
	if err == nil {
		t.Fatal("Generate() expected error")
	}

	var compErr *CompletionError
	if !errors.As(err, &compErr) {
		t.Fatalf("Generate() error type = %T, want *CompletionError", err)
	}
	if compErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", compErr.StatusCode)
	}
	if compErr.Message != "model not loaded" {
		t.Errorf("Message = %q, want service payload", compErr.Message)
	}
}

func TestEmbed(t *testing.T) {
	f := &fakeOllama{
		embedStatus: http.StatusOK,
		embedBody:   map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}},
	}
	c := newTestClient(t, f)

	vec, err := c.Embed(context.Background(), "Hur lång är leveranstiden?")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("Embed() returned %d dims, want 3", len(vec))
	}
}

func TestEmbed_EmptyVector(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"no embeddings array", map[string]any{"embeddings": [][]float32{}}},
		{"empty first vector", map[string]any{"embeddings": [][]float32{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeOllama{embedStatus: http.StatusOK, embedBody: tt.body}
			c := newTestClient(t, f)

			_, err := c.Embed(context.Background(), "text")
			if err == nil {
				t.Fatal("Embed() expected error for empty vector")
			}

			var embErr *EmbeddingError
			if !errors.As(err, &embErr) {
				t.Fatalf("Embed() error type = %T, want *EmbeddingError", err)
			}
			if !errors.Is(err, ErrEmptyEmbedding) {
				t.Errorf("Embed() error = %v, want wrapping ErrEmptyEmbedding", err)
			}
		})
	}
}

func TestEmbed_ServiceError(t *testing.T) {
	f := &fakeOllama{
		embedStatus: http.StatusBadGateway,
		embedBody:   map[string]any{"error": "upstream unavailable"},
	}
	c := newTestClient(t, f)

	_, err := c.Embed(context.Background(), "text")
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("Embed() error type = %T, want *EmbeddingError", err)
	}
	if embErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", embErr.StatusCode)
	}
	if errors.Is(err, ErrEmptyEmbedding) {
		t.Error("transport failure must not be classified as empty embedding")
	}
}

func TestNew_InvalidHost(t *testing.T) {
	_, err := New(Config{Host: "://bad"}, log.NewNop())
	if err == nil {
		t.Fatal("New() expected error for invalid host")
	}
}
