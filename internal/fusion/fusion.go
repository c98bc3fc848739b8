// Package fusion implements the ChunkFusion component of spec.md
// §4.6, combining a chunk's vector score, clause-match confidence,
// and first-pass bonus into a single ranking score. Grounded on
// go-enhanced-rag-service's hybrid-scoring pattern of blending vector
// similarity with a secondary relevance signal before truncating to
// the final context window.
package fusion

import (
	"sort"

	"policy-qa-core/internal/ragtypes"
)

const (
	vectorWeight     = 0.6
	clauseWeight     = 0.3
	firstPassWeight  = 0.1
	defaultTopN      = 5
	complexTypeTopN  = 8
	narrowComplexTopN = 6
)

// Fuse scores every hit in hits (clause confidence looked up by
// chunk index from matches, defaulting to 0 when absent) and returns
// the top N fused chunks: defaultTopN, widened to complexTypeTopN for
// Exclusion/TableBenefits and to narrowComplexTopN for
// Coverage/MaternityWellBaby (the ragtypes.ComplexTypes set).
func Fuse(hits []ragtypes.SearchHit, matches []ragtypes.ClauseMatch, queryType ragtypes.QueryType) []ragtypes.FusedChunk {
	confidenceByChunk := make(map[int]float64, len(matches))
	for _, m := range matches {
		key := m.ChunkIndex
		if c, ok := confidenceByChunk[key]; !ok || m.Confidence > c {
			confidenceByChunk[key] = m.Confidence
		}
	}

	fused := make([]ragtypes.FusedChunk, 0, len(hits))
	for _, h := range hits {
		clauseConfidence := confidenceByChunk[h.ChunkIndex]
		firstPassBonus := 0.0
		if h.SearchPass == 0 {
			firstPassBonus = 0.1
		}
		final := vectorWeight*h.Score + clauseWeight*clauseConfidence + firstPassWeight*firstPassBonus
		fused = append(fused, ragtypes.FusedChunk{
			ChunkID:    h.ChunkID,
			Text:       h.Text,
			DocID:      h.DocID,
			ChunkIndex: h.ChunkIndex,
			Final:      ragtypes.Clamp01(final),
		})
	}

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Final > fused[j].Final })

	n := defaultTopN
	if ragtypes.ComplexTypes[queryType] {
		n = complexTypeTopN
		if queryType == ragtypes.QueryCoverage || queryType == ragtypes.QueryMaternityWellBaby {
			n = narrowComplexTopN
		}
	}
	if len(fused) > n {
		fused = fused[:n]
	}
	return fused
}
