package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/technova/supportbot/internal/knowledge"
	"github.com/technova/supportbot/internal/log"
)

// DefaultBatchSize bounds how many chunks are embedded and inserted per
// batch, limiting memory use and load on the embedding service.
const DefaultBatchSize = 64

// ErrNoChunks indicates the source document produced no chunks. Ingestion
// treats this as fatal: a missing or malformed document must not silently
// result in an empty index.
var ErrNoChunks = errors.New("no chunks produced from source document")

// InsertError reports a failed insert batch. The run halts at the failing
// batch; previously committed batches stay in place.
type InsertError struct {
	Batch int // zero-based index of the failing batch
	Err   error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert batch %d failed: %v", e.Batch, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Inserter is the write path of the chunk store.
type Inserter interface {
	InsertBatch(ctx context.Context, rows []knowledge.IndexedChunk) (int, error)
}

// IngestConfig configures one ingestion run.
type IngestConfig struct {
	ChunkSize    int    // 0 means DefaultChunkSize
	ChunkOverlap int    // negative means DefaultChunkOverlap
	BatchSize    int    // 0 means DefaultBatchSize
	Source       string // logical document name stamped on every chunk
	Language     string // document language code
}

// Ingestor runs the offline indexing pipeline: chunk, embed, insert.
// It is a single-writer batch process; chunks are embedded sequentially
// and written in bounded batches, and the first failure halts the run.
type Ingestor struct {
	embedder Embedder
	index    Inserter
	cfg      IngestConfig
	logger   log.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(embedder Embedder, index Inserter, cfg IngestConfig, logger log.Logger) *Ingestor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingestor{embedder: embedder, index: index, cfg: cfg, logger: logger}
}

// Run ingests one document and returns the number of rows inserted.
//
// The guarantee is all-or-nothing per batch, not per document: an
// embedding failure or insert failure aborts the run immediately, so the
// reported count never exceeds what was actually stored, and no batch
// after a failure is attempted. Callers must treat any error as a failed
// run and re-ingest from scratch.
func (ing *Ingestor) Run(ctx context.Context, raw string) (int, error) {
	chunks := SplitDocument(raw, SplitOptions{
		Size:     ing.cfg.ChunkSize,
		Overlap:  ing.cfg.ChunkOverlap,
		Source:   ing.cfg.Source,
		Language: ing.cfg.Language,
	})
	if len(chunks) == 0 {
		return 0, ErrNoChunks
	}
	ing.logger.Info("document parsed", "chunks", len(chunks))

	batches := toBatches(chunks, ing.cfg.BatchSize)
	inserted := 0

	for bi, batch := range batches {
		ing.logger.Info("embedding batch",
			"batch", bi+1,
			"batches", len(batches),
			"size", len(batch))

		rows := make([]knowledge.IndexedChunk, 0, len(batch))
		for _, chunk := range batch {
			vec, err := ing.embedder.Embed(ctx, chunk.Content)
			if err != nil {
				return inserted, fmt.Errorf("embedding chunk in batch %d: %w", bi, err)
			}
			rows = append(rows, knowledge.IndexedChunk{Chunk: chunk, Embedding: vec})
		}

		n, err := ing.index.InsertBatch(ctx, rows)
		if err != nil {
			return inserted, &InsertError{Batch: bi, Err: err}
		}

		inserted += n
		ing.logger.Info("batch inserted", "total", inserted, "chunks", len(chunks))
	}

	ing.logger.Info("ingestion complete", "inserted", inserted)
	return inserted, nil
}

// toBatches slices chunks into batches of at most size elements.
func toBatches(chunks []knowledge.Chunk, size int) [][]knowledge.Chunk {
	var out [][]knowledge.Chunk
	for i := 0; i < len(chunks); i += size {
		end := i + size
		if end > len(chunks) {
			end = len(chunks)
		}
		out = append(out, chunks[i:end])
	}
	return out
}
