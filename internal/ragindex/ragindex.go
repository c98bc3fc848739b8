// Package ragindex defines the EmbeddingIndex collaborator contract
// (spec.md §6) and an in-process reference implementation used by
// tests and by the in-memory reference deployment. The production,
// pgvector-backed implementation lives in pgindex.go.
//
// Grounded on original_source/app/core/embedding_engine.py's
// EmbeddingEngine (encode/add_documents/search/clear_document) and
// go-enhanced-rag-service/vector_store.go's VectorStore, translated
// from FAISS IndexFlatIP semantics into a plain cosine-similarity scan.
// InMemory.Remove drops the document's entries from the flat entry
// slice directly (no soft-delete bitmap), which leaves search results
// the same as a rebuild without those vectors.
package ragindex

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"policy-qa-core/internal/ragtypes"
)

// Embedder maps text to a unit-norm vector of fixed dimension,
// spec.md §1's "external collaborator specified only by the contract
// the core consumes".
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Index is the EmbeddingIndex contract of spec.md §6.
type Index interface {
	Add(ctx context.Context, docID string, chunks []ragtypes.ChunkText) error
	Search(ctx context.Context, query string, k int, threshold float64) ([]ragtypes.SearchHit, error)
	Remove(ctx context.Context, docID string) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats mirrors EmbeddingEngine.get_index_stats.
type Stats struct {
	TotalVectors     int
	Dimension        int
	UniqueDocuments  int
}

var ErrIndexEmpty = errors.New("ragindex: index is empty")

type vectorEntry struct {
	chunkID    int
	docID      string
	chunkIndex int
	text       string
	vec        []float32
}

// InMemory is a flat inner-product index, the Go counterpart of
// embedding_engine.py's faiss.IndexFlatIP wrapper. Add is idempotent
// per docID (re-ingesting an already-present document is a no-op, per
// spec.md §3's Document.id invariant).
type InMemory struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  []vectorEntry
	seenDocs map[string]bool
	nextID   int
}

func NewInMemory(embedder Embedder) *InMemory {
	return &InMemory{embedder: embedder, seenDocs: make(map[string]bool)}
}

func (idx *InMemory) Add(ctx context.Context, docID string, chunks []ragtypes.ChunkText) error {
	idx.mu.Lock()
	already := idx.seenDocs[docID]
	idx.mu.Unlock()
	if already {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := idx.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, c := range chunks {
		idx.entries = append(idx.entries, vectorEntry{
			chunkID:    idx.nextID,
			docID:      docID,
			chunkIndex: c.Index,
			text:       c.Text,
			vec:        vecs[i],
		})
		idx.nextID++
	}
	idx.seenDocs[docID] = true
	return nil
}

func (idx *InMemory) Search(ctx context.Context, query string, k int, threshold float64) ([]ragtypes.SearchHit, error) {
	idx.mu.RLock()
	if len(idx.entries) == 0 {
		idx.mu.RUnlock()
		return nil, nil
	}
	entries := make([]vectorEntry, len(idx.entries))
	copy(entries, idx.entries)
	idx.mu.RUnlock()

	qv, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	q := qv[0]

	type scored struct {
		entry vectorEntry
		score float64
	}
	scoredEntries := make([]scored, 0, len(entries))
	for _, e := range entries {
		s := cosineSimilarity(q, e.vec)
		if s >= threshold {
			scoredEntries = append(scoredEntries, scored{entry: e, score: s})
		}
	}
	sort.Slice(scoredEntries, func(i, j int) bool { return scoredEntries[i].score > scoredEntries[j].score })
	if k > 0 && len(scoredEntries) > k {
		scoredEntries = scoredEntries[:k]
	}

	hits := make([]ragtypes.SearchHit, 0, len(scoredEntries))
	for _, se := range scoredEntries {
		hits = append(hits, ragtypes.SearchHit{
			ChunkID:    se.entry.chunkID,
			Score:      se.score,
			Text:       se.entry.text,
			DocID:      se.entry.docID,
			ChunkIndex: se.entry.chunkIndex,
		})
	}
	return hits, nil
}

func (idx *InMemory) Remove(ctx context.Context, docID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	kept := idx.entries[:0]
	for _, e := range idx.entries {
		if e.docID != docID {
			kept = append(kept, e)
		}
	}
	idx.entries = kept
	delete(idx.seenDocs, docID)
	return nil
}

func (idx *InMemory) Stats(ctx context.Context) (Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Stats{
		TotalVectors:    len(idx.entries),
		Dimension:       idx.embedder.Dimension(),
		UniqueDocuments: len(idx.seenDocs),
	}, nil
}

// cosineSimilarity computes true cosine similarity
// (dot / (|a|*|b|)). Unlike go-enhanced-rag-service/vector_store.go's
// cosineSimilarity (which divides by normA*normB, the squared norms,
// not their square roots) this divides by the product of the square
// roots, matching spec.md §3's "embeddings are unit-normalized; the
// index returns cosine similarity via inner product" invariant
// exactly even for non-unit-norm embedders used in tests.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
