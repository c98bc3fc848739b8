package classify

import (
	"testing"

	"policy-qa-core/internal/ragtypes"
)

func TestClassifyGracePeriod(t *testing.T) {
	if got := Classify("What is the grace period for premium payment?"); got != ragtypes.QueryGracePeriod {
		t.Fatalf("expected GracePeriod, got %v", got)
	}
}

func TestClassifyGeneralOnNoVotes(t *testing.T) {
	if got := Classify("Tell me a story about a dragon"); got != ragtypes.QueryGeneral {
		t.Fatalf("expected General for an unrelated question, got %v", got)
	}
}

func TestClassifyTieBreakPrefersNumericalOverCoverage(t *testing.T) {
	// "limit" votes NumericalLimit once; "coverage" votes Coverage once: a tie.
	got := Classify("What is the limit on coverage?")
	if got != ragtypes.QueryNumericalLimit {
		t.Fatalf("expected NumericalLimit to win the tie over Coverage, got %v", got)
	}
}

func TestClassifyAirAmbulance(t *testing.T) {
	if got := Classify("Does the policy cover air ambulance and helicopter transport?"); got != ragtypes.QueryAirAmbulance {
		t.Fatalf("expected AirAmbulance, got %v", got)
	}
}
