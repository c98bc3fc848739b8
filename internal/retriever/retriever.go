// Package retriever implements the multi-pass search component of
// spec.md §4.4: two fixed passes over an EmbeddingIndex, scored and
// merged by chunk_id, grounded on the retrieval loop of
// go-enhanced-rag-service/main.go's enhanced search handler and
// original_source/app/core/query_processor.py's variant fan-out.
package retriever

import (
	"context"
	"sort"

	"policy-qa-core/internal/ragindex"
	"policy-qa-core/internal/ragtypes"
)

type pass struct {
	threshold float64
	k         int
	boost     float64
}

// passes is spec.md §4.4's two-row table.
var passes = []pass{
	{threshold: 0.30, k: 6, boost: 1.00},
	{threshold: 0.40, k: 4, boost: 0.80},
}

const topN = 15

// Search runs the two-pass, per-variant search described in spec.md
// §4.4 against idx and returns the top 15 hits by effective score,
// merged by chunk_id (max effective score wins). A single variant's
// search failure is swallowed; the retriever only returns an error
// when every variant in every pass failed.
func Search(ctx context.Context, idx ragindex.Index, variants []ragtypes.QueryVariant) ([]ragtypes.SearchHit, error) {
	best := make(map[int]ragtypes.SearchHit)
	var lastErr error
	attempts := 0
	failures := 0

	for passIdx, p := range passes {
		for i, variant := range variants {
			attempts++

			kPrime := p.k - i/3
			if kPrime < 3 {
				kPrime = 3
			}
			thresholdPrime := p.threshold + 0.02*float64(i)
			if thresholdPrime > 0.70 {
				thresholdPrime = 0.70
			}

			hits, err := idx.Search(ctx, variant.Text, kPrime, thresholdPrime)
			if err != nil {
				lastErr = err
				failures++
				continue
			}

			decay := 1 - 0.02*float64(i)
			for _, h := range hits {
				h.Score = h.Score * p.boost * decay
				h.MatchedQuery = variant.Text
				h.SearchPass = passIdx
				if existing, ok := best[h.ChunkID]; !ok || h.Score > existing.Score {
					best[h.ChunkID] = h
				}
			}
		}
	}

	if len(best) == 0 {
		if attempts > 0 && failures == attempts {
			return nil, lastErr
		}
		return nil, nil
	}

	out := make([]ragtypes.SearchHit, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}
