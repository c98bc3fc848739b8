// Package clause implements the ClauseMatcher component of spec.md
// §4.5, grounded on original_source/app/core/clause_matcher.py's
// clause_patterns/clause_weights/clause_relationships tables and its
// _calculate_enhanced_confidence/_analyze_pattern_matches/
// _calculate_keyword_density/_calculate_context_relevance/
// _calculate_regulatory_score/_calculate_length_boost/
// _calculate_insurance_boost/_apply_enhanced_filtering methods.
package clause

import (
	"regexp"
	"sort"
	"strings"

	"policy-qa-core/internal/ragtypes"
)

type clauseRule struct {
	patterns []*regexp.Regexp
	weight   float64
}

// clauseRules carries all 24 of clause_matcher.py's clause_patterns
// families verbatim (the remaining ragtypes.ClauseType constants are
// this expansion's own extension beyond the original and are not
// scored here; the Python's weight table lists explicit weights for
// 14 of its 24 families).
var clauseRules = map[ragtypes.ClauseType]clauseRule{
	ragtypes.ClauseAirAmbulance: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`air\s*ambulance`), regexp.MustCompile(`air\s*evacuation`)},
		weight:   1.5,
	},
	ragtypes.ClauseWellMother: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`well\s*mother`), regexp.MustCompile(`maternal\s*care`)},
		weight:   1.4,
	},
	ragtypes.ClauseWellBaby: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`well\s*baby`), regexp.MustCompile(`newborn\s*care`)},
		weight:   1.4,
	},
	ragtypes.ClauseRegulatory: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`\buin\b`), regexp.MustCompile(`regulatory\s*authority`), regexp.MustCompile(`irdai`)},
		weight:   1.3,
	},
	ragtypes.ClauseDistanceTravel: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`\bkm\b`), regexp.MustCompile(`distance\s*travel`), regexp.MustCompile(`nearest\s*hospital`)},
		weight:   1.3,
	},
	ragtypes.ClauseProportionatePayment: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`proportionate`), regexp.MustCompile(`pro.?rata`)},
		weight:   1.2,
	},
	ragtypes.ClauseWaitingPeriod: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`waiting\s*period`), regexp.MustCompile(`\d+\s*months?\s*(of\s*)?continuous`)},
		weight:   1.1,
	},
	ragtypes.ClauseGracePeriod: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`grace\s*period`), regexp.MustCompile(`premium\s*due`)},
		weight:   1.1,
	},
	ragtypes.ClauseMaternity: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`maternity`), regexp.MustCompile(`child\s*birth`), regexp.MustCompile(`pregnan\w*`)},
		weight:   1.1,
	},
	ragtypes.ClausePreExisting: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`pre.?existing`)},
		weight:   1.1,
	},
	ragtypes.ClauseCoverage: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`cover(ed|age)?`), regexp.MustCompile(`benefit\w*`)},
		weight:   1.0,
	},
	ragtypes.ClauseExclusion: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`exclu\w+`), regexp.MustCompile(`not\s*covered`)},
		weight:   1.0,
	},
	ragtypes.ClausePremium: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`premium`)},
		weight:   1.0,
	},
	ragtypes.ClauseDeductible: {
		patterns: []*regexp.Regexp{regexp.MustCompile(`deductible`), regexp.MustCompile(`co.?pay(ment)?`)},
		weight:   1.0,
	},
	// Default-weight (1.0) families, clause_matcher.py's clause_weights
	// falls back to 1.0 via clause_weights.get(clause_type, 1.0) for
	// every family not listed above.
	ragtypes.ClauseRoutineCare: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`routine\s*medical\s*care`), regexp.MustCompile(`routine\s*care`),
			regexp.MustCompile(`preventive\s*care`), regexp.MustCompile(`wellness\s*care`),
			regexp.MustCompile(`health\s*maintenance`), regexp.MustCompile(`routine\s*checkup`),
			regexp.MustCompile(`health\s*screening`), regexp.MustCompile(`wellness\s*services`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseLicensing: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`licensed`), regexp.MustCompile(`certified`), regexp.MustCompile(`authorized`),
			regexp.MustCompile(`accredited`), regexp.MustCompile(`duly\s*licensed`),
			regexp.MustCompile(`competent\s*government\s*authority`), regexp.MustCompile(`licensing\s*authority`),
			regexp.MustCompile(`regulatory\s*body`), regexp.MustCompile(`certification\s*authority`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseTableBenefits: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`table\s*of\s*benefits`), regexp.MustCompile(`benefit\s*table`),
			regexp.MustCompile(`coverage\s*table`), regexp.MustCompile(`benefit\s*schedule`),
			regexp.MustCompile(`coverage\s*schedule`), regexp.MustCompile(`policy\s*schedule`),
			regexp.MustCompile(`benefits\s*chart`), regexp.MustCompile(`schedule\s*of\s*benefits`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseMultipleBirth: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`multiple\s*birth`), regexp.MustCompile(`multiple\s*babies`),
			regexp.MustCompile(`twins`), regexp.MustCompile(`triplets`), regexp.MustCompile(`quadruplets`),
			regexp.MustCompile(`twin\s*birth`), regexp.MustCompile(`multiple\s*deliveries`),
		},
		weight: 1.0,
	},
	ragtypes.ClausePeriodOptions: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`period\s*option`), regexp.MustCompile(`coverage\s*period`),
			regexp.MustCompile(`policy\s*period`), regexp.MustCompile(`benefit\s*period`),
			regexp.MustCompile(`period\s*choice`), regexp.MustCompile(`coverage\s*option`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseMedicalExamination: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`medical\s*examination`), regexp.MustCompile(`health\s*checkup`),
			regexp.MustCompile(`medical\s*checkup`), regexp.MustCompile(`customary\s*examination`),
			regexp.MustCompile(`health\s*assessment`), regexp.MustCompile(`clinical\s*examination`),
			regexp.MustCompile(`physical\s*examination`), regexp.MustCompile(`diagnostic\s*examination`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseSumInsuredLimits: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`sum\s*insured`), regexp.MustCompile(`insured\s*amount`),
			regexp.MustCompile(`coverage\s*amount`), regexp.MustCompile(`policy\s*limit`),
			regexp.MustCompile(`maximum\s*coverage`), regexp.MustCompile(`benefit\s*limit`),
			regexp.MustCompile(`room\s*rent\s*limit`), regexp.MustCompile(`(?i)icu\s*limit`),
			regexp.MustCompile(`sub.?limit`), regexp.MustCompile(`\d+%\s*of\s*si`),
		},
		weight: 1.0,
	},
	ragtypes.ClausePlanTypes: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)plan\s*[abc]\b`), regexp.MustCompile(`basic\s*plan`),
			regexp.MustCompile(`standard\s*plan`), regexp.MustCompile(`premium\s*plan`),
			regexp.MustCompile(`(?i)option\s*[ab]\b`), regexp.MustCompile(`(?i)package\s*[ab]\b`),
			regexp.MustCompile(`(?i)scheme\s*[ab]\b`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseAyushTreatment: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ayush\b`), regexp.MustCompile(`ayurveda`), regexp.MustCompile(`\byoga\b`),
			regexp.MustCompile(`naturopathy`), regexp.MustCompile(`unani`), regexp.MustCompile(`siddha`),
			regexp.MustCompile(`homeopathy`), regexp.MustCompile(`alternative\s*medicine`),
			regexp.MustCompile(`traditional\s*medicine`), regexp.MustCompile(`ayurvedic\s*treatment`),
		},
		weight: 1.0,
	},
	ragtypes.ClauseHospitalDefinition: {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bhospital\b`), regexp.MustCompile(`medical\s*institution`),
			regexp.MustCompile(`healthcare\s*facility`), regexp.MustCompile(`nursing\s*home`),
			regexp.MustCompile(`medical\s*center`), regexp.MustCompile(`\d+\s*bed`),
			regexp.MustCompile(`qualified\s*nursing`), regexp.MustCompile(`medical\s*practitioner`),
			regexp.MustCompile(`round\s*the\s*clock`),
		},
		weight: 1.0,
	},
}

var contextIndicators = map[ragtypes.ClauseType][]string{
	ragtypes.ClauseAirAmbulance:   {"hospital", "emergency", "medical", "transport", "evacuation"},
	ragtypes.ClauseWellMother:     {"pregnancy", "maternal", "delivery", "prenatal", "postnatal"},
	ragtypes.ClauseWellBaby:       {"newborn", "infant", "baby", "neonatal", "pediatric"},
	ragtypes.ClauseRegulatory:     {"authority", "government", "approval", "license", "compliance"},
	ragtypes.ClauseWaitingPeriod:  {"months", "years", "continuous", "inception", "commencement"},
	ragtypes.ClauseGracePeriod:    {"payment", "premium", "renewal", "due", "extension"},
	ragtypes.ClauseMaternity:      {"pregnancy", "delivery", "childbirth", "obstetric", "labor"},
}

var regulatoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]{2,}[0-9]{2,}[A-Z0-9]*\b`),
	regexp.MustCompile(`\bUIN\b`),
	regexp.MustCompile(`\bAUTHORITY\b`),
	regexp.MustCompile(`\bLICENS\w*\b`),
	regexp.MustCompile(`\bAPPROVAL\b`),
	regexp.MustCompile(`\bREGISTRATION\b`),
	regexp.MustCompile(`\bCOMPLIANCE\b`),
	regexp.MustCompile(`\bREGULATORY\b`),
	regexp.MustCompile(`\bGOVERNMENT\b`),
	regexp.MustCompile(`\bOFFICIAL\b`),
}

var stopWords = map[string]bool{
	"the": true, "is": true, "are": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "an": true, "a": true,
	"this": true, "that": true, "these": true, "those": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"should": true, "could": true, "can": true,
}

var highValueTerms = []string{
	"sum insured", "policy limit", "coverage amount", "benefit limit",
	"waiting period", "grace period", "pre-existing", "maternity",
	"air ambulance", "well mother", "well baby", "proportionate",
	"licensed authority", "competent authority", "table of benefits",
}

var mediumValueTerms = []string{
	"premium", "deductible", "co-pay", "exclusion", "coverage",
	"benefit", "treatment", "hospitalization", "medical expenses",
	"reimbursement", "indemnity", "compensation",
}

// clauseRelationships mirrors clause_matcher.py's clause_relationships
// table (dependencies/conflicts/related clause types). Not consulted
// by Match's confidence formula — spec.md §4.5 never references it —
// so it is exposed only for the ingest-time metadata endpoint via
// RelatedTypes/ConflictingTypes, never by ProcessDocumentQueries.
var clauseRelationships = map[ragtypes.ClauseType]struct {
	related   []ragtypes.ClauseType
	conflicts []ragtypes.ClauseType
}{
	ragtypes.ClauseWaitingPeriod: {
		related: []ragtypes.ClauseType{ragtypes.ClauseCoverage, ragtypes.ClausePreExisting, ragtypes.ClauseMaternity},
	},
	ragtypes.ClauseGracePeriod: {
		related: []ragtypes.ClauseType{ragtypes.ClausePremium},
	},
	ragtypes.ClauseMaternity: {
		related: []ragtypes.ClauseType{ragtypes.ClauseWaitingPeriod, ragtypes.ClauseCoverage, ragtypes.ClauseWellMother, ragtypes.ClauseWellBaby},
	},
	ragtypes.ClauseWellMother: {
		related:   []ragtypes.ClauseType{ragtypes.ClauseMaternity, ragtypes.ClauseRoutineCare},
		conflicts: []ragtypes.ClauseType{ragtypes.ClauseExclusion},
	},
	ragtypes.ClauseWellBaby: {
		related:   []ragtypes.ClauseType{ragtypes.ClauseMaternity, ragtypes.ClauseRoutineCare},
		conflicts: []ragtypes.ClauseType{ragtypes.ClauseExclusion},
	},
	ragtypes.ClauseAirAmbulance: {
		related:   []ragtypes.ClauseType{ragtypes.ClauseLicensing, ragtypes.ClauseDistanceTravel, ragtypes.ClauseTableBenefits, ragtypes.ClauseProportionatePayment},
		conflicts: []ragtypes.ClauseType{ragtypes.ClauseExclusion},
	},
	ragtypes.ClauseProportionatePayment: {
		related: []ragtypes.ClauseType{ragtypes.ClauseDistanceTravel, ragtypes.ClauseAirAmbulance},
	},
	ragtypes.ClauseRegulatory: {
		related: []ragtypes.ClauseType{ragtypes.ClauseLicensing, ragtypes.ClauseTableBenefits},
	},
	ragtypes.ClauseRoutineCare: {
		related: []ragtypes.ClauseType{ragtypes.ClauseWellMother, ragtypes.ClauseWellBaby},
	},
	ragtypes.ClauseCoverage: {
		conflicts: []ragtypes.ClauseType{ragtypes.ClauseExclusion},
	},
	ragtypes.ClauseExclusion: {
		conflicts: []ragtypes.ClauseType{ragtypes.ClauseCoverage},
	},
}

// RelatedTypes returns clause types that commonly co-occur with t, for
// ingest-time metadata only.
func RelatedTypes(t ragtypes.ClauseType) []ragtypes.ClauseType {
	return clauseRelationships[t].related
}

// ConflictingTypes returns clause types that are typically mutually
// exclusive with t, for ingest-time metadata only.
func ConflictingTypes(t ragtypes.ClauseType) []ragtypes.ClauseType {
	return clauseRelationships[t].conflicts
}

// Candidate is a scored chunk fed into Match, carrying the score the
// retriever already assigned it (spec.md §4.4's effective score).
type Candidate struct {
	Text       string
	Score      float64
	DocID      string
	ChunkIndex int
}

// IdentifyTypes returns the top-3 clause types for a question by
// weighted pattern-match count (spec.md §4.5's "identified top-3
// clause types of the question").
func IdentifyTypes(question string) []ragtypes.ClauseType {
	lower := strings.ToLower(question)

	type scored struct {
		t     ragtypes.ClauseType
		score float64
	}
	var scoredTypes []scored
	for t, rule := range clauseRules {
		count := 0
		for _, re := range rule.patterns {
			count += len(re.FindAllString(lower, -1))
		}
		if count > 0 {
			scoredTypes = append(scoredTypes, scored{t: t, score: float64(count) * rule.weight})
		}
	}
	sort.Slice(scoredTypes, func(i, j int) bool { return scoredTypes[i].score > scoredTypes[j].score })

	if len(scoredTypes) > 3 {
		scoredTypes = scoredTypes[:3]
	}
	types := make([]ragtypes.ClauseType, 0, len(scoredTypes))
	for _, s := range scoredTypes {
		types = append(types, s.t)
	}
	return types
}

// Match scores each candidate chunk against the question's identified
// clause types and returns the filtered, confidence-sorted set of
// ClauseMatch results.
func Match(question string, candidates []Candidate, threshold float64) []ragtypes.ClauseMatch {
	clauseTypes := IdentifyTypes(question)

	var matches []ragtypes.ClauseMatch
	for _, c := range candidates {
		if c.Score < threshold {
			continue
		}
		m := confidence(question, c, clauseTypes)
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		if matches[i].SimilarityScore != matches[j].SimilarityScore {
			return matches[i].SimilarityScore > matches[j].SimilarityScore
		}
		if matches[i].KeywordDensity != matches[j].KeywordDensity {
			return matches[i].KeywordDensity > matches[j].KeywordDensity
		}
		return matches[i].RegulatoryScore > matches[j].RegulatoryScore
	})

	return applyFiltering(matches, clauseTypes)
}

func confidence(question string, c Candidate, clauseTypes []ragtypes.ClauseType) ragtypes.ClauseMatch {
	patternBoost, patternMatches := patternAnalysis(c.Text, clauseTypes)
	keywordDensity := keywordDensity(question, c.Text)
	contextRelevance := contextRelevance(c.Text, clauseTypes)
	regulatoryScore := regulatoryScore(c.Text)
	lengthBoost := lengthBoost(c.Text)
	insuranceBoost := insuranceBoost(c.Text)

	total := c.Score*0.4 + patternBoost*0.25 + keywordDensity*0.15 +
		contextRelevance*0.1 + lengthBoost*0.05 + insuranceBoost*0.05
	total = ragtypes.Clamp01(total)

	primary := ragtypes.ClauseType("general")
	if len(clauseTypes) > 0 {
		primary = clauseTypes[0]
	}

	return ragtypes.ClauseMatch{
		Text:             c.Text,
		SimilarityScore:  c.Score,
		DocID:            c.DocID,
		ChunkIndex:       c.ChunkIndex,
		ClauseType:       primary,
		Confidence:       total,
		PatternMatches:   patternMatches,
		KeywordDensity:   keywordDensity,
		ContextRelevance: contextRelevance,
		RegulatoryScore:  regulatoryScore,
	}
}

func patternAnalysis(text string, clauseTypes []ragtypes.ClauseType) (float64, []string) {
	lower := strings.ToLower(text)
	var totalBoost float64
	seen := make(map[string]bool)
	var all []string

	for _, t := range clauseTypes {
		rule, ok := clauseRules[t]
		if !ok {
			continue
		}
		count := 0
		for _, re := range rule.patterns {
			for _, m := range re.FindAllString(lower, -1) {
				count++
				if !seen[m] {
					seen[m] = true
					all = append(all, m)
				}
			}
		}
		if count > 0 {
			boost := 0.1 * float64(count) * rule.weight
			if boost > 0.3 {
				boost = 0.3
			}
			totalBoost += boost
		}
	}
	if totalBoost > 0.5 {
		totalBoost = 0.5
	}
	return totalBoost, all
}

func keywordDensity(question, text string) float64 {
	questionWords := wordSet(question)
	textWords := wordSet(text)

	for w := range stopWords {
		delete(questionWords, w)
		delete(textWords, w)
	}
	if len(questionWords) == 0 {
		return 0
	}

	overlap := 0
	for w := range questionWords {
		if textWords[w] {
			overlap++
		}
	}
	ratio := float64(overlap) / float64(len(questionWords))

	qNorm := strings.ToLower(strings.TrimSpace(question))
	textNorm := strings.ToLower(text)

	var phraseBoost float64
	if strings.Contains(textNorm, qNorm) {
		phraseBoost = 0.3
	} else {
		qTokens := strings.Fields(qNorm)
		if len(qTokens) > 1 {
			matches := 0
			for i := 0; i < len(qTokens)-1; i++ {
				bigram := qTokens[i] + " " + qTokens[i+1]
				if strings.Contains(textNorm, bigram) {
					matches++
				}
			}
			phraseBoost = 0.1 * float64(matches)
			if phraseBoost > 0.2 {
				phraseBoost = 0.2
			}
		}
	}

	return ragtypes.Clamp01(ratio + phraseBoost)
}

func contextRelevance(text string, clauseTypes []ragtypes.ClauseType) float64 {
	lower := strings.ToLower(text)
	var score float64
	for _, t := range clauseTypes {
		indicators := contextIndicators[t]
		if len(indicators) == 0 {
			continue
		}
		matches := 0
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		weight := 1.0
		if rule, ok := clauseRules[t]; ok {
			weight = rule.weight
		}
		typeRelevance := 0.1 * float64(matches) * weight
		if typeRelevance > 0.3 {
			typeRelevance = 0.3
		}
		score += typeRelevance
	}
	return ragtypes.Clamp01(score)
}

func regulatoryScore(text string) float64 {
	upper := strings.ToUpper(text)
	var score float64
	for _, re := range regulatoryPatterns {
		n := len(re.FindAllString(upper, -1))
		if n > 0 {
			score += float64(n) * 0.1
		}
	}
	return ragtypes.Clamp01(score)
}

func lengthBoost(text string) float64 {
	words := len(strings.Fields(text))
	switch {
	case words < 15:
		return -0.1
	case words <= 30:
		return 0.0
	case words <= 100:
		return 0.1
	case words <= 200:
		return 0.15
	default:
		return 0.1
	}
}

func insuranceBoost(text string) float64 {
	lower := strings.ToLower(text)
	var boost float64
	for _, term := range highValueTerms {
		if strings.Contains(lower, term) {
			boost += 0.05
		}
	}
	for _, term := range mediumValueTerms {
		if strings.Contains(lower, term) {
			boost += 0.02
		}
	}
	if boost > 0.3 {
		boost = 0.3
	}
	return boost
}

func applyFiltering(matches []ragtypes.ClauseMatch, clauseTypes []ragtypes.ClauseType) []ragtypes.ClauseMatch {
	if len(clauseTypes) == 0 {
		return matches
	}

	var filtered []ragtypes.ClauseMatch
	for _, m := range matches {
		switch {
		case m.SimilarityScore > 0.8,
			m.Confidence > 0.7,
			len(m.PatternMatches) > 0,
			m.KeywordDensity > 0.5,
			m.RegulatoryScore > 0.3:
			filtered = append(filtered, m)
		}
	}

	if len(filtered) < 3 && len(matches) > 3 {
		top := matches
		if len(top) > 8 {
			top = top[:8]
		}
		return top
	}
	return filtered
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if w != "" {
			out[w] = true
		}
	}
	return out
}
