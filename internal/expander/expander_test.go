package expander

import "testing"

func TestExpandIncludesOriginal(t *testing.T) {
	question := "What is the grace period for premium payment?"
	variants := Expand(question, 20)
	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}
	idx := -1
	for i, v := range variants {
		if v.Text == question {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatalf("expected the original question among the variants, got %v", variants)
	}
	if variants[idx].PriorityScore != 100 {
		t.Fatalf("expected original question to carry score 100, got %v", variants[idx])
	}
	for _, v := range variants[:idx] {
		if v.PriorityScore < 100 {
			t.Fatalf("expected only variants scored at least 100 ahead of the original, got %v", v)
		}
	}
}

func TestExpandRespectsMax(t *testing.T) {
	variants := Expand("What is the waiting period for pre-existing disease of 36 months?", 3)
	if len(variants) > 3 {
		t.Fatalf("expected at most 3 variants, got %d", len(variants))
	}
}

func TestExpandDeduplicates(t *testing.T) {
	variants := Expand("grace period grace period", 20)
	seen := make(map[string]bool)
	for _, v := range variants {
		key := v.Text
		if seen[key] {
			t.Fatalf("duplicate variant text: %q", key)
		}
		seen[key] = true
	}
}

func TestExpandNumberWordSubstitution(t *testing.T) {
	variants := Expand("grace period of 30 days", 20)
	found := false
	for _, v := range variants {
		if v.Text == "grace period of thirty days" {
			found = true
		}
	}
	if !found {
		t.Error("expected a number-word variant substituting 30 -> thirty")
	}
}

func TestExpandUINPattern(t *testing.T) {
	variants := Expand("What is UIN ABCD1234V01 for this product?", 20)
	found := false
	for _, v := range variants {
		if v.Text == "UIN ABCD1234V01" {
			found = true
		}
	}
	if !found {
		t.Error("expected a UIN-prefixed variant for an identifier-shaped token")
	}
}

func TestScoreOrdering(t *testing.T) {
	if score("sum insured waiting period 36 months") <= score("benefit") {
		t.Error("expected a high-value, multi-term, numeric variant to outscore a single generic word")
	}
}
