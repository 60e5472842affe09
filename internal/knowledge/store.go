// Package knowledge persists policy chunks and their embeddings in
// PostgreSQL + pgvector and answers nearest-neighbor queries over them.
package knowledge

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/technova/supportbot/internal/log"
)

// Table schema constants for the chunk store.
// These match the docs table in db/migrations.
const (
	TableName = "docs"

	// VectorDimension is the embedding dimensionality the schema declares.
	// nomic-embed-text outputs 768-dimensional vectors.
	VectorDimension = 768
)

// DefaultTopK is the number of chunks returned by Search when the caller
// passes a non-positive limit.
const DefaultTopK = 6

// Querier defines the database operations the Store needs.
// Interfaces are defined by the consumer, not the provider; tests supply
// a mock and production uses the pgx implementation in pgx.go.
type Querier interface {
	// CopyChunks bulk-inserts rows and returns how many were written.
	CopyChunks(ctx context.Context, rows []IndexedChunk) (int64, error)

	// MatchChunks returns up to limit rows ordered by descending similarity.
	MatchChunks(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Retrieved, error)
}

// SearchError reports a failed vector lookup. The underlying error is
// preserved unchanged and reachable via errors.Is/As.
type SearchError struct {
	Err error
}

func (e *SearchError) Error() string { return fmt.Sprintf("vector search failed: %v", e.Err) }
func (e *SearchError) Unwrap() error { return e.Err }

// Store manages indexed policy chunks with vector search.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	q      Querier
	logger log.Logger
}

// New creates a Store on top of the given querier.
func New(q Querier, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{q: q, logger: logger}
}

// InsertBatch bulk-inserts one batch of indexed chunks and returns the
// number of rows written. Partial success is not assumed: any failure is
// returned as-is and the caller aborts its run. Previously committed
// batches are left intact (no automatic rollback).
func (s *Store) InsertBatch(ctx context.Context, rows []IndexedChunk) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	count, err := s.q.CopyChunks(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("bulk insert into %s: %w", TableName, err)
	}
	if count != int64(len(rows)) {
		return int(count), fmt.Errorf("bulk insert into %s: wrote %d of %d rows", TableName, count, len(rows))
	}

	s.logger.Debug("batch inserted", "rows", count)
	return int(count), nil
}

// Search returns at most topK chunks most similar to the query vector,
// ordered by descending similarity. An empty corpus (or nothing clearing
// the backend's relevance threshold) yields an empty slice, not an error;
// lookup failures are returned as *SearchError with the cause intact.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int32) ([]Retrieved, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	rows, err := s.q.MatchChunks(ctx, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, &SearchError{Err: err}
	}
	if rows == nil {
		rows = []Retrieved{}
	}

	s.logger.Debug("vector search done", "hits", len(rows), "top_k", topK)
	return rows, nil
}
