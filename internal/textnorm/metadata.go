package textnorm

import "strings"

// insuranceKeywordCategories is a representative slice of
// document_processor.py's 24-category, ~800-term
// _initialize_insurance_keywords table, used only for the optional
// ingest-time DocumentMetadata analysis (SPEC_FULL.md §4.1 supplement)
// — never consulted by ProcessDocumentQueries, so it cannot affect
// answer determinism.
var insuranceKeywordCategories = map[string][]string{
	"policy_terms":     {"policy", "insurance policy", "policyholder", "insured", "beneficiary"},
	"coverage_terms":   {"coverage", "covered", "benefits", "sum insured", "sum assured"},
	"time_periods":     {"waiting period", "grace period", "cooling period", "policy period"},
	"financial_terms":  {"premium", "deductible", "co-payment", "excess"},
	"exclusions":       {"exclusion", "excluded", "not covered", "limitation"},
	"pre_existing":     {"pre-existing", "existing condition", "chronic condition"},
	"maternity":        {"maternity", "pregnancy", "childbirth", "newborn"},
	"claims":           {"claim", "claim settlement", "tpa", "third party administrator"},
	"regulatory":       {"uin", "irdai", "irda", "regulatory authority"},
	"ayush":            {"ayush", "ayurveda", "homeopathy", "naturopathy"},
}

// DocumentMetadata carries the optional, non-authoritative ingest-time
// analysis described in SPEC_FULL.md §4.1.
type DocumentMetadata struct {
	InsuranceTermsDetected int
	CategoryCounts         map[string]int
	DocumentTypeIndicators map[string]bool
	ComplexityScore        float64
}

// AnalyzeMetadata computes the supplemental document-type indicators
// and complexity score. Never called from the retrieval/answer path.
func AnalyzeMetadata(cleanedText string) DocumentMetadata {
	lower := strings.ToLower(cleanedText)

	counts := make(map[string]int, len(insuranceKeywordCategories))
	total := 0
	for category, terms := range insuranceKeywordCategories {
		n := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				n++
			}
		}
		counts[category] = n
		total += n
	}

	indicators := map[string]bool{
		"health_insurance":  containsAny(lower, "health insurance", "medical insurance", "hospitalization", "sum insured"),
		"travel_insurance":  containsAny(lower, "travel insurance", "trip", "common carrier"),
		"life_insurance":    containsAny(lower, "life insurance", "death benefit", "maturity", "surrender"),
		"group_insurance":   containsAny(lower, "group insurance", "employee", "master policy"),
		"motor_insurance":   containsAny(lower, "motor insurance", "vehicle", "third party"),
		"policy_wording":    containsAny(lower, "policy wording", "terms and conditions", "exclusions", "definitions"),
	}

	words := len(strings.Fields(cleanedText))
	sentences := strings.Count(cleanedText, ".")
	if sentences == 0 {
		sentences = 1
	}
	avgSentenceLen := float64(words) / float64(sentences)

	complexity := min1(avgSentenceLen/20, 3) + min1(float64(total)/100, 3)
	if complexity > 10 {
		complexity = 10
	}

	return DocumentMetadata{
		InsuranceTermsDetected: total,
		CategoryCounts:         counts,
		DocumentTypeIndicators: indicators,
		ComplexityScore:        complexity,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func min1(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}
