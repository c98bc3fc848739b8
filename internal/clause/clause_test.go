package clause

import "testing"

func TestIdentifyTypesPrioritizesAirAmbulance(t *testing.T) {
	types := IdentifyTypes("What is the air ambulance coverage limit in km?")
	if len(types) == 0 || types[0] != "air_ambulance" {
		t.Fatalf("expected air_ambulance as top type, got %v", types)
	}
}

func TestIdentifyTypesGeneralWhenNoMatch(t *testing.T) {
	types := IdentifyTypes("hello there")
	if len(types) != 0 {
		t.Fatalf("expected no identified types for an unrelated question, got %v", types)
	}
}

func TestMatchFiltersLowSimilarity(t *testing.T) {
	candidates := []Candidate{
		{Text: "the grace period for premium payment is thirty days from the due date", Score: 0.1, DocID: "d1", ChunkIndex: 0},
	}
	matches := Match("what is the grace period for premium payment", candidates, 0.3)
	if len(matches) != 0 {
		t.Fatalf("expected candidate below threshold to be excluded, got %d matches", len(matches))
	}
}

func TestMatchConfidenceClamped(t *testing.T) {
	candidates := []Candidate{
		{Text: "The grace period for premium payment is thirty days from the due date for renewal of the policy without losing continuity benefits.", Score: 0.95, DocID: "d1", ChunkIndex: 0},
	}
	matches := Match("what is the grace period for premium payment", candidates, 0.3)
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}
	if matches[0].Confidence < 0 || matches[0].Confidence > 1 {
		t.Fatalf("confidence out of [0,1]: %v", matches[0].Confidence)
	}
}

func TestMatchKeepsTop8WhenFilteringTooRestrictive(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, Candidate{Text: "a short irrelevant sentence about nothing in particular", Score: 0.31, DocID: "d1", ChunkIndex: i})
	}
	matches := Match("what is the grace period for premium payment", candidates, 0.3)
	if len(matches) == 0 {
		t.Fatal("expected fallback top-N matches when strict filtering yields fewer than 3")
	}
}
