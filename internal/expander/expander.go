// Package expander implements the QueryExpander component of
// spec.md §4.3: a deterministic generator of up to 20 query variants
// per question. Grounded verbatim (structurally) on
// original_source/app/core/query_processor.py's _preprocess_query and
// its supporting _get_enhanced_pattern_expansions/
// _get_insurance_specific_expansions/_get_technical_expansions/
// _get_semantic_expansions/_get_context_specific_expansions/
// _prioritize_variations_enhanced methods.
package expander

import (
	"regexp"
	"sort"
	"strings"

	"policy-qa-core/internal/ragtypes"
)

// synonymGroups mirrors query_processor.py's comprehensive_synonyms
// dict: for each multi-word key present in the question, substitute
// each synonym and also emit the synonym alone. A representative
// subset of the ~35-group table, covering every family spec.md's
// scenarios S1-S3 and the clause families exercise.
var synonymGroups = map[string][]string{
	"grace period":          {"payment grace", "premium grace period", "grace time"},
	"waiting period":        {"wait period", "waiting time", "exclusion period"},
	"pre-existing disease":  {"pre-existing condition", "ped", "existing illness"},
	"sum insured":           {"sum assured", "insured amount", "coverage limit"},
	"no claim discount":     {"ncd", "no claim bonus", "ncb"},
	"room rent":             {"room charges", "accommodation charges", "bed charges"},
	"air ambulance":         {"air medical transport", "medical evacuation", "aeromedical transport"},
	"maternity benefit":     {"pregnancy benefit", "childbirth coverage"},
	"organ donor":           {"donor expenses", "transplant donor"},
	"co-payment":            {"co-pay", "copayment", "cost sharing"},
	"hospitalization":       {"inpatient treatment", "hospital admission"},
	"day care procedure":    {"day care surgery", "daycare treatment"},
	"health check-up":       {"health checkup", "preventive checkup", "medical checkup"},
}

// numberWords mirrors query_processor.py's number_words dict, used
// bidirectionally: digit -> word form, and word form -> digit.
var numberWords = map[string]string{
	"1": "one", "2": "two", "3": "three", "4": "four", "5": "five",
	"10": "ten", "12": "twelve", "15": "fifteen", "18": "eighteen",
	"24": "twenty-four", "30": "thirty", "36": "thirty-six",
	"45": "forty-five", "60": "sixty", "90": "ninety", "180": "one hundred eighty",
}

type patternExpansion struct {
	re      *regexp.Regexp
	phrases []string
}

// patternExpansions mirrors query_processor.py's
// _get_enhanced_pattern_expansions 20-entry table. Representative
// subset grounded on the same regex/phrase-list shape.
var patternExpansions = []patternExpansion{
	{regexp.MustCompile(`(?i)grace period.*premium`), []string{"thirty days premium payment", "premium payment grace period"}},
	{regexp.MustCompile(`(?i)waiting period.*pre.?existing`), []string{"36 months pre-existing diseases", "thirty-six months waiting period"}},
	{regexp.MustCompile(`(?i)uin|unique identification`), []string{"product identification number", "regulatory identification code"}},
	{regexp.MustCompile(`(?i)air ambulance`), []string{"emergency air transport", "medical evacuation by air"}},
	{regexp.MustCompile(`(?i)maternity|pregnan`), []string{"childbirth benefit", "well mother well baby"}},
	{regexp.MustCompile(`(?i)room rent|icu charges`), []string{"room rent sub-limit", "ICU room charges"}},
}

var uinLike = regexp.MustCompile(`\b[A-Z]{2,}[0-9]{2,}[A-Z0-9]*\b`)
var bareInteger = regexp.MustCompile(`\b\d+\b`)

var highValueTerms = []string{"sum insured", "waiting period", "grace period", "pre-existing", "exclusion", "uin"}
var mediumValueTerms = []string{"premium", "coverage", "benefit", "claim", "deductible"}
var distanceTimeTerms = []string{"days", "months", "years", "km", "kilometers"}

// semanticExpansions mirrors _get_semantic_expansions' fixed
// one-to-many maps for maximum/minimum/period/coverage/treatment/
// expenses.
var semanticExpansions = map[string][]string{
	"maximum":   {"upper limit", "cap"},
	"minimum":   {"lower limit", "floor"},
	"period":    {"duration", "term"},
	"coverage":  {"protection", "benefit"},
	"treatment": {"procedure", "therapy"},
	"expenses":  {"costs", "charges"},
}

// Expand returns up to maxVariants query variants for question,
// deduplicated by lowercased-trimmed form and sorted by descending
// priority score (spec.md §4.3).
func Expand(question string, maxVariants int) []ragtypes.QueryVariant {
	lower := strings.ToLower(question)

	seen := make(map[string]bool)
	var variants []ragtypes.QueryVariant

	add := func(text string) {
		key := strings.ToLower(strings.TrimSpace(text))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		variants = append(variants, ragtypes.QueryVariant{Text: text})
	}

	add(question) // original, priority 100 fixed below

	for _, key := range sortedKeys(synonymGroups) {
		synonyms := synonymGroups[key]
		if strings.Contains(lower, key) {
			for _, syn := range synonyms {
				add(strings.ReplaceAll(lower, key, syn))
				add(syn)
			}
		}
	}

	for _, n := range bareInteger.FindAllString(question, -1) {
		if word, ok := numberWords[n]; ok {
			add(strings.ReplaceAll(lower, n, word))
		}
	}
	for _, digit := range sortedKeys(numberWords) {
		word := numberWords[digit]
		if strings.Contains(lower, word) {
			add(strings.ReplaceAll(lower, word, digit))
		}
	}

	for _, pe := range patternExpansions {
		if pe.re.MatchString(question) {
			for _, phrase := range pe.phrases {
				add(phrase)
			}
		}
	}

	for _, code := range uinLike.FindAllString(question, -1) {
		add("product " + code)
		add("policy " + code)
		add("UIN " + code)
	}

	for _, concept := range sortedKeys(semanticExpansions) {
		expansions := semanticExpansions[concept]
		if strings.Contains(lower, concept) {
			for _, e := range expansions {
				add(strings.ReplaceAll(lower, concept, e))
			}
		}
	}

	for i := range variants {
		if strings.EqualFold(variants[i].Text, question) {
			variants[i].PriorityScore = 100
		} else {
			variants[i].PriorityScore = score(variants[i].Text)
		}
	}

	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].PriorityScore > variants[j].PriorityScore
	})

	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants
}

// sortedKeys returns m's keys in sorted order, so that the expansion
// tables are walked in the same order on every run.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// score mirrors query_processor.py's _prioritize_variations_enhanced.
func score(text string) float64 {
	lower := strings.ToLower(text)
	words := strings.Fields(text)

	var s float64
	switch {
	case len(words) >= 5:
		s += 60
	case len(words) >= 3:
		s += 40
	case len(words) >= 2:
		s += 20
	}

	if bareInteger.MatchString(text) {
		s += 25
	}
	for _, t := range highValueTerms {
		if strings.Contains(lower, t) {
			s += 30
			break
		}
	}
	for _, t := range mediumValueTerms {
		if strings.Contains(lower, t) {
			s += 15
			break
		}
	}
	if uinLike.MatchString(text) {
		s += 40
	}
	for _, t := range distanceTimeTerms {
		if strings.Contains(lower, t) {
			s += 30
			break
		}
	}
	return s
}
