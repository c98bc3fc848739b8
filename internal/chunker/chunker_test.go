package chunker

import (
	"strings"
	"testing"

	"policy-qa-core/internal/textnorm"
)

func TestChunkSplitsOnNormalizedSectionMarkers(t *testing.T) {
	raw := "DEFINITIONS\n\n" +
		strings.Repeat("the insured means the person named in the schedule. ", 40) + "\n\n" +
		"BENEFITS\n" +
		strings.Repeat("room rent is covered up to 2% of the sum insured per day. ", 40) + "\n\n" +
		"EXCLUSIONS\n" +
		strings.Repeat("cosmetic surgery and dental treatment are not covered. ", 40)

	cleaned := textnorm.Clean(raw)
	chunks := Chunk(cleaned, 1200, 250)

	if len(chunks) < 3 {
		t.Fatalf("expected at least one chunk per normalized section, got %d: %v", len(chunks), chunks)
	}

	var sawBenefits, sawExclusions bool
	for _, c := range chunks {
		if strings.Contains(c.Text, "room rent") {
			sawBenefits = true
		}
		if strings.Contains(c.Text, "cosmetic surgery") {
			sawExclusions = true
		}
	}
	if !sawBenefits || !sawExclusions {
		t.Fatalf("expected benefits and exclusions content to survive chunking, got %v", chunks)
	}
}

func TestChunkIndexesSequentially(t *testing.T) {
	raw := strings.Repeat("a sentence about coverage terms and conditions. ", 200)
	chunks := Chunk(textnorm.Clean(raw), 1200, 250)

	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("expected sequential indices, chunk %d has Index=%d", i, c.Index)
		}
	}
}

func TestChunkDropsTinyFragments(t *testing.T) {
	chunks := Chunk(textnorm.Clean("too short"), 1200, 250)
	if len(chunks) != 0 {
		t.Fatalf("expected fragments under minChunkLen to be dropped, got %v", chunks)
	}
}
