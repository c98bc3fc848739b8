package ragindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"policy-qa-core/internal/ragtypes"
)

// PGIndex is the production EmbeddingIndex backed by Postgres +
// pgvector, the adaptation of document-chunker/main.go's pgxpool
// schema (same unique-per-document-chunk-index constraint, same
// index set) to store 384-dim embeddings instead of plain text rows.
type PGIndex struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewPGIndex(ctx context.Context, dsn string, embedder Embedder) (*PGIndex, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("ragindex: connect postgres: %w", err)
	}
	idx := &PGIndex{pool: pool, embedder: embedder}
	if err := idx.migrate(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *PGIndex) migrate(ctx context.Context) error {
	_, err := idx.pool.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS stored_chunks (
			chunk_id    BIGSERIAL PRIMARY KEY,
			doc_id      VARCHAR(64) NOT NULL,
			chunk_index INTEGER NOT NULL,
			content     TEXT NOT NULL,
			embedding   vector(384),
			UNIQUE(doc_id, chunk_index)
		);
		CREATE INDEX IF NOT EXISTS idx_stored_chunks_doc_id ON stored_chunks(doc_id);
	`)
	if err != nil {
		return fmt.Errorf("ragindex: migrate schema: %w", err)
	}
	return nil
}

func (idx *PGIndex) Add(ctx context.Context, docID string, chunks []ragtypes.ChunkText) error {
	var existing int
	if err := idx.pool.QueryRow(ctx, `SELECT count(*) FROM stored_chunks WHERE doc_id = $1`, docID).Scan(&existing); err != nil {
		return fmt.Errorf("ragindex: check existing: %w", err)
	}
	if existing > 0 {
		return nil // idempotent per doc_id, spec.md §3
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := idx.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("ragindex: embed chunks: %w", err)
	}

	batch := idx.pool.Begin
	tx, err := batch(ctx)
	if err != nil {
		return fmt.Errorf("ragindex: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, c := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO stored_chunks (doc_id, chunk_index, content, embedding) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (doc_id, chunk_index) DO NOTHING`,
			docID, c.Index, c.Text, pgvector.NewVector(vecs[i]))
		if err != nil {
			return fmt.Errorf("ragindex: insert chunk %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

func (idx *PGIndex) Search(ctx context.Context, query string, k int, threshold float64) ([]ragtypes.SearchHit, error) {
	qv, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("ragindex: embed query: %w", err)
	}
	qvec := pgvector.NewVector(qv[0])

	rows, err := idx.pool.Query(ctx, `
		SELECT chunk_id, doc_id, chunk_index, content, 1 - (embedding <=> $1) AS similarity
		FROM stored_chunks
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, qvec, threshold, k)
	if err != nil {
		return nil, fmt.Errorf("ragindex: similarity query: %w", err)
	}
	defer rows.Close()

	var hits []ragtypes.SearchHit
	for rows.Next() {
		var h ragtypes.SearchHit
		if err := rows.Scan(&h.ChunkID, &h.DocID, &h.ChunkIndex, &h.Text, &h.Score); err != nil {
			return nil, fmt.Errorf("ragindex: scan row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (idx *PGIndex) Remove(ctx context.Context, docID string) error {
	_, err := idx.pool.Exec(ctx, `DELETE FROM stored_chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return fmt.Errorf("ragindex: remove doc %s: %w", docID, err)
	}
	return nil
}

func (idx *PGIndex) Stats(ctx context.Context) (Stats, error) {
	var total, docs int
	if err := idx.pool.QueryRow(ctx, `SELECT count(*), count(DISTINCT doc_id) FROM stored_chunks`).Scan(&total, &docs); err != nil {
		return Stats{}, fmt.Errorf("ragindex: stats: %w", err)
	}
	return Stats{TotalVectors: total, Dimension: idx.embedder.Dimension(), UniqueDocuments: docs}, nil
}

func (idx *PGIndex) Close() {
	idx.pool.Close()
}
