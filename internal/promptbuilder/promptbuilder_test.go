package promptbuilder

import (
	"strings"
	"testing"

	"policy-qa-core/internal/ragtypes"
)

func TestBuildIncludesQuestionAndContext(t *testing.T) {
	chunks := []ragtypes.FusedChunk{{Text: "The grace period is thirty days."}}
	prompt := Build("What is the grace period?", chunks, ragtypes.QueryGracePeriod)

	if !strings.Contains(prompt, "What is the grace period?") {
		t.Error("expected prompt to contain the question")
	}
	if !strings.Contains(prompt, "[SECTION 1]") {
		t.Error("expected prompt to contain a section marker")
	}
	if !strings.Contains(prompt, "GRACE PERIOD PROCESSING") {
		t.Error("expected prompt to contain the grace-period processing hint")
	}
}

func TestBuildFallsBackToGeneralHints(t *testing.T) {
	prompt := Build("random question", nil, ragtypes.QueryType("unknown"))
	if !strings.Contains(prompt, "GENERAL PROCESSING") {
		t.Error("expected unknown query types to fall back to general processing hints")
	}
}

func TestParamsForDefaults(t *testing.T) {
	p := ParamsFor(ragtypes.QueryGeneral)
	if p.Temperature != 0.10 || p.TopP != 0.80 || p.TopK != 10 || p.MaxOutput != 2048 {
		t.Fatalf("unexpected default params: %+v", p)
	}
}

func TestParamsForNumericalLimit(t *testing.T) {
	p := ParamsFor(ragtypes.QueryNumericalLimit)
	if p.Temperature != 0.05 || p.TopK != 5 {
		t.Fatalf("expected low-temperature, narrow top-k for NumericalLimit, got %+v", p)
	}
}

func TestParamsForExclusion(t *testing.T) {
	p := ParamsFor(ragtypes.QueryExclusion)
	if p.MaxOutput != 3000 {
		t.Fatalf("expected max output 3000 for Exclusion, got %d", p.MaxOutput)
	}
}
