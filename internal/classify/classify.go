// Package classify implements the QueryClassifier component of
// spec.md §4.2, grounded on
// original_source/app/core/llm_client.py's query_patterns table and
// _classify_query_type. Unlike the Python (plain max() over pattern
// match counts, whose tie-break is insertion-order-dependent), ties
// here are broken by spec.md's explicit fixed priority order.
package classify

import (
	"regexp"
	"strings"

	"policy-qa-core/internal/ragtypes"
)

var queryPatterns = map[ragtypes.QueryType][]*regexp.Regexp{
	ragtypes.QueryGracePeriod: compileAll(
		`grace\s*period`, `payment\s*grace`, `premium\s*grace`, `renewal\s*grace`,
		`thirty\s*days?\s*grace`, `30\s*days?\s*grace`, `payment\s*window`,
	),
	ragtypes.QueryWaitingPeriod: compileAll(
		`waiting\s*period`, `wait\s*period`, `exclusion\s*period`, `cooling\s*period`,
		`\d+\s*months?\s*waiting`, `\d+\s*years?\s*waiting`, `continuous\s*coverage`,
	),
	ragtypes.QueryCoverage: compileAll(
		`coverage`, `covered`, `benefits?`, `indemnity`, `compensation`,
		`reimbursement`, `what\s*is\s*covered`, `coverage\s*scope`,
	),
	ragtypes.QueryExclusion: compileAll(
		`exclusion`, `excluded`, `not\s*covered`, `exception`, `limitation`,
		`list.*exclusion`, `what.*not.*covered`, `circumstances.*not.*covered`,
	),
	ragtypes.QueryNumericalLimit: compileAll(
		`limit`, `maximum`, `minimum`, `percentage`, `\d+%`, `sub[\-\s]?limit`,
		`room\s*rent.*limit`, `icu.*limit`, `1%`, `2%`, `5%`, `co[\-\s]?payment`,
	),
	ragtypes.QueryDefinition: compileAll(
		`define`, `definition`, `what\s*is`, `how.*define`, `meaning\s*of`,
		`hospital.*define`, `what.*mean`,
	),
	ragtypes.QueryUINRegulatory: compileAll(
		`uin`, `unique\s*identification`, `base\s*product`, `regulatory`,
		`authority`, `licensed?`, `certification`, `approval`,
	),
	ragtypes.QueryAirAmbulance: compileAll(
		`air\s*ambulance`, `helicopter`, `aviation`, `medical\s*helicopter`,
		`air\s*medical`, `emergency\s*aviation`, `flight\s*ambulance`,
	),
	ragtypes.QueryMaternityWellBaby: compileAll(
		`maternity`, `pregnancy`, `well\s*mother`, `well\s*baby`, `newborn`,
		`infant`, `childbirth`, `delivery`, `baby\s*care`,
	),
	ragtypes.QueryTableBenefits: compileAll(
		`table\s*of\s*benefits`, `benefit\s*table`, `schedule`, `benefit\s*schedule`,
		`coverage\s*table`, `payment\s*mode`,
	),
}

// tieBreakOrder is spec.md §4.2's fixed priority order, most to least
// preferred, used only when two or more types tie on vote count.
var tieBreakOrder = []ragtypes.QueryType{
	ragtypes.QueryNumericalLimit,
	ragtypes.QueryUINRegulatory,
	ragtypes.QueryAirAmbulance,
	ragtypes.QueryMaternityWellBaby,
	ragtypes.QueryWaitingPeriod,
	ragtypes.QueryGracePeriod,
	ragtypes.QueryExclusion,
	ragtypes.QueryDefinition,
	ragtypes.QueryTableBenefits,
	ragtypes.QueryCoverage,
	ragtypes.QueryGeneral,
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Classify votes the question's lower-cased form across the 10
// query-type pattern sets (General has none and wins on zero votes)
// and returns the winner, breaking ties per tieBreakOrder.
func Classify(question string) ragtypes.QueryType {
	lower := strings.ToLower(question)

	votes := make(map[ragtypes.QueryType]int, len(queryPatterns))
	best := 0
	for qt, patterns := range queryPatterns {
		count := 0
		for _, re := range patterns {
			count += len(re.FindAllString(lower, -1))
		}
		if count > 0 {
			votes[qt] = count
			if count > best {
				best = count
			}
		}
	}

	if best == 0 {
		return ragtypes.QueryGeneral
	}

	for _, qt := range tieBreakOrder {
		if votes[qt] == best {
			return qt
		}
	}
	return ragtypes.QueryGeneral
}
