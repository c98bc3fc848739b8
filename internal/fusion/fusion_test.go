package fusion

import (
	"testing"

	"policy-qa-core/internal/ragtypes"
)

func TestFuseDefaultTopN(t *testing.T) {
	var hits []ragtypes.SearchHit
	for i := 0; i < 10; i++ {
		hits = append(hits, ragtypes.SearchHit{ChunkID: i, ChunkIndex: i, Score: float64(i) / 10, SearchPass: 1})
	}
	fused := Fuse(hits, nil, ragtypes.QueryGracePeriod)
	if len(fused) != 5 {
		t.Fatalf("expected 5 fused chunks for a non-complex type, got %d", len(fused))
	}
	if fused[0].Final < fused[len(fused)-1].Final {
		t.Fatal("expected fused chunks sorted by descending final score")
	}
}

func TestFuseWidensForComplexTypes(t *testing.T) {
	var hits []ragtypes.SearchHit
	for i := 0; i < 10; i++ {
		hits = append(hits, ragtypes.SearchHit{ChunkID: i, ChunkIndex: i, Score: float64(i) / 10})
	}
	fused := Fuse(hits, nil, ragtypes.QueryExclusion)
	if len(fused) != 8 {
		t.Fatalf("expected 8 fused chunks for a complex type, got %d", len(fused))
	}
}

func TestFuseIncludesClauseConfidenceAndFirstPassBonus(t *testing.T) {
	hits := []ragtypes.SearchHit{{ChunkID: 1, ChunkIndex: 1, Score: 0.5, SearchPass: 0}}
	matches := []ragtypes.ClauseMatch{{ChunkIndex: 1, Confidence: 1.0}}
	fused := Fuse(hits, matches, ragtypes.QueryGeneral)
	want := 0.6*0.5 + 0.3*1.0 + 0.1*0.1
	if diff := fused[0].Final - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected final score %v, got %v", want, fused[0].Final)
	}
}
