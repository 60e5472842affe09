package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// insertColumns is the column order used for bulk inserts.
// id and created_at are filled by the database.
var insertColumns = []string{"content", "embedding", "source", "section", "heading", "lang"}

// matchQuery ranks rows by cosine distance and reports similarity as
// 1 - distance. The ORDER BY expression matches the HNSW index operator
// class so the planner can use the index.
const matchQuery = `
SELECT id, content, section, heading, source, 1 - (embedding <=> $1) AS similarity
FROM docs
ORDER BY embedding <=> $1
LIMIT $2`

// PgxQuerier implements Querier on a pgx connection pool.
type PgxQuerier struct {
	pool *pgxpool.Pool
}

// NewPgxQuerier creates the production Querier backed by the given pool.
// The pool must have pgvector types registered (see database.Open).
func NewPgxQuerier(pool *pgxpool.Pool) *PgxQuerier {
	return &PgxQuerier{pool: pool}
}

// CopyChunks bulk-inserts rows using the PostgreSQL COPY protocol.
func (q *PgxQuerier) CopyChunks(ctx context.Context, rows []IndexedChunk) (int64, error) {
	count, err := q.pool.CopyFrom(ctx,
		pgx.Identifier{TableName},
		insertColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.Content,
				pgvector.NewVector(r.Embedding),
				r.Source,
				r.Section,
				r.Heading,
				r.Language,
			}, nil
		}),
	)
	if err != nil {
		return count, fmt.Errorf("copy into %s: %w", TableName, err)
	}
	return count, nil
}

// MatchChunks runs the nearest-neighbor query.
func (q *PgxQuerier) MatchChunks(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Retrieved, error) {
	rows, err := q.pool.Query(ctx, matchQuery, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", TableName, err)
	}
	defer rows.Close()

	var out []Retrieved
	for rows.Next() {
		var r Retrieved
		if err := rows.Scan(&r.ID, &r.Content, &r.Section, &r.Heading, &r.Source, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", TableName, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", TableName, err)
	}

	return out, nil
}
