package retriever

import (
	"context"
	"testing"

	"policy-qa-core/internal/ragindex"
	"policy-qa-core/internal/ragtypes"
)

type fakeIndex struct {
	hitsByQuery map[string][]ragtypes.SearchHit
	err         error
}

func (f *fakeIndex) Add(ctx context.Context, docID string, chunks []ragtypes.ChunkText) error {
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int, threshold float64) ([]ragtypes.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	hits := f.hitsByQuery[query]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeIndex) Remove(ctx context.Context, docID string) error { return nil }

func (f *fakeIndex) Stats(ctx context.Context) (ragindex.Stats, error) { return ragindex.Stats{}, nil }

func TestSearchMergesByChunkIDKeepingMax(t *testing.T) {
	idx := &fakeIndex{
		hitsByQuery: map[string][]ragtypes.SearchHit{
			"grace period": {{ChunkID: 1, Score: 0.5, Text: "a"}},
			"grace time":   {{ChunkID: 1, Score: 0.9, Text: "a"}},
		},
	}
	variants := []ragtypes.QueryVariant{
		{Text: "grace period", PriorityScore: 100},
		{Text: "grace time", PriorityScore: 40},
	}
	hits, err := Search(context.Background(), idx, variants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected one merged hit, got %d", len(hits))
	}
	if hits[0].MatchedQuery != "grace time" {
		t.Fatalf("expected the higher-scoring variant's match to win, got %q with score %v", hits[0].MatchedQuery, hits[0].Score)
	}
}

func TestSearchCapsAtTop15(t *testing.T) {
	hits := make([]ragtypes.SearchHit, 0, 20)
	for i := 0; i < 20; i++ {
		hits = append(hits, ragtypes.SearchHit{ChunkID: i, Score: 0.5, Text: "x"})
	}
	idx := &fakeIndex{hitsByQuery: map[string][]ragtypes.SearchHit{"q": hits}}
	got, err := Search(context.Background(), idx, []ragtypes.QueryVariant{{Text: "q"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) > 15 {
		t.Fatalf("expected at most 15 hits, got %d", len(got))
	}
}

func TestSearchReturnsNilOnEmptyIndex(t *testing.T) {
	idx := &fakeIndex{hitsByQuery: map[string][]ragtypes.SearchHit{}}
	hits, err := Search(context.Background(), idx, []ragtypes.QueryVariant{{Text: "anything"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}
