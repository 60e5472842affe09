// Package testutil provides deterministic fakes for the LLM and chunk
// store collaborators, with call recording so tests can assert which
// external capabilities were (or were not) invoked.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/technova/supportbot/internal/knowledge"
)

// MockGenerator provides deterministic completion responses.
// It matches prompts against registered substrings and returns the
// corresponding response; first match wins. Thread-safe.
type MockGenerator struct {
	mu       sync.Mutex
	rules    []genRule
	fallback string
	err      error
	prompts  []string
}

type genRule struct {
	pattern  string
	response string
}

// NewMockGenerator creates a mock generator with the given fallback
// response, returned when no pattern matches.
func NewMockGenerator(fallback string) *MockGenerator {
	return &MockGenerator{fallback: fallback}
}

// AddResponse registers a pattern-response pair. When a prompt contains
// the pattern, the response is returned.
func (m *MockGenerator) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, genRule{pattern: pattern, response: response})
}

// Fail makes every subsequent Generate call return err.
func (m *MockGenerator) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Generate implements rag.Generator.
func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.rules {
		if strings.Contains(prompt, r.pattern) {
			return r.response, nil
		}
	}
	return m.fallback, nil
}

// Calls returns the number of Generate calls made.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of all recorded prompts.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.prompts))
	copy(cp, m.prompts)
	return cp
}

// MockEmbedder returns a fixed vector for every text. Thread-safe.
type MockEmbedder struct {
	mu         sync.Mutex
	vector     []float32
	err        error
	failAtCall int // call index (1-based) from which Embed fails; 0 = every call once err is set
	texts      []string
}

// NewMockEmbedder creates a mock embedder returning vector for every call.
func NewMockEmbedder(vector []float32) *MockEmbedder {
	return &MockEmbedder{vector: vector}
}

// Fail makes every subsequent Embed call return err.
func (m *MockEmbedder) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FailAt makes the n-th Embed call (1-based) and every call after it
// return err.
func (m *MockEmbedder) FailAt(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAtCall = n
	m.err = err
}

// Embed implements rag.Embedder.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.texts = append(m.texts, text)
	if m.err != nil && (m.failAtCall == 0 || len(m.texts) >= m.failAtCall) {
		return nil, m.err
	}
	return m.vector, nil
}

// Calls returns the number of Embed calls made.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Texts returns a copy of all embedded texts in call order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.texts))
	copy(cp, m.texts)
	return cp
}

// MockIndex is a fake chunk store covering both the search and insert
// paths. Thread-safe.
type MockIndex struct {
	mu          sync.Mutex
	searchRows  []knowledge.Retrieved
	searchErr   error
	insertErr   error
	failAtBatch int // insert call index (1-based) that fails; 0 = never

	searchCalls int
	insertCalls int
	inserted    []knowledge.IndexedChunk
	lastTopK    int32
}

// NewMockIndex creates a mock index returning rows from Search.
func NewMockIndex(rows []knowledge.Retrieved) *MockIndex {
	return &MockIndex{searchRows: rows}
}

// FailSearch makes every subsequent Search call return err.
func (m *MockIndex) FailSearch(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
}

// FailInsertAt makes the n-th InsertBatch call (1-based) return err.
func (m *MockIndex) FailInsertAt(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAtBatch = n
	m.insertErr = err
}

// Search implements rag.Index.
func (m *MockIndex) Search(_ context.Context, _ []float32, topK int32) ([]knowledge.Retrieved, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchCalls++
	m.lastTopK = topK
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchRows == nil {
		return []knowledge.Retrieved{}, nil
	}
	return m.searchRows, nil
}

// InsertBatch implements rag.Inserter.
func (m *MockIndex) InsertBatch(_ context.Context, rows []knowledge.IndexedChunk) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if m.failAtBatch > 0 && m.insertCalls >= m.failAtBatch {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, rows...)
	return len(rows), nil
}

// SearchCalls returns the number of Search calls made.
func (m *MockIndex) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

// InsertCalls returns the number of InsertBatch calls made.
func (m *MockIndex) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCalls
}

// Inserted returns a copy of every successfully inserted row.
func (m *MockIndex) Inserted() []knowledge.IndexedChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]knowledge.IndexedChunk, len(m.inserted))
	copy(cp, m.inserted)
	return cp
}

// LastTopK returns the topK passed to the most recent Search call.
func (m *MockIndex) LastTopK() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTopK
}
