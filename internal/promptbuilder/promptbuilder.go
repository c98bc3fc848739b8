// Package promptbuilder implements the PromptBuilder half of spec.md
// §4.7, grounded on
// original_source/app/core/llm_client.py's _create_specialized_qa_prompt/
// _get_specialized_processing_instructions/_get_response_format_instructions.
package promptbuilder

import (
	"fmt"
	"strings"

	"policy-qa-core/internal/ragtypes"
)

var analysisFramework = `ANALYSIS FRAMEWORK:
1. SYSTEMATIC SEARCH: Examine ALL provided context sections methodically
2. EXACT EXTRACTION: When numbers, periods, or codes are found, reproduce them EXACTLY
3. COMPREHENSIVE COVERAGE: Look across definitions, benefits, exclusions, and tables
4. CONTEXTUAL INTEGRATION: Combine related information from multiple sections when needed
5. PRECISION REQUIREMENT: State specific timeframes, amounts, percentages, and conditions
6. SOURCE VERIFICATION: Base answers only on explicitly stated information
`

var processingHints = map[ragtypes.QueryType]string{
	ragtypes.QueryGracePeriod: `GRACE PERIOD PROCESSING:
- Search: "grace period", "thirty days", "payment grace", "premium extension"
- Extract: exact timeframes and renewal conditions
- Focus: premium payment deadlines and policy continuity
`,
	ragtypes.QueryWaitingPeriod: `WAITING PERIOD PROCESSING:
- Search: exclusions sections, "36 months", "24 months", "continuous coverage"
- Extract: specific periods for pre-existing disease, maternity, surgery
- Focus: different waiting period types and their applications
`,
	ragtypes.QueryNumericalLimit: `NUMERICAL LIMITS PROCESSING:
- Search: table of benefits, percentage mentions (1%, 2%, 5%, 10%, 20%, 50%)
- Extract: exact percentages, amounts, and calculation methods
- Focus: plan-specific variations and sub-limits
`,
	ragtypes.QueryUINRegulatory: `UIN/REGULATORY PROCESSING:
- Search: document headers, footers, regulatory sections
- Extract: complete alphanumeric codes
- Focus: base product vs add-on identification
`,
	ragtypes.QueryAirAmbulance: `AIR AMBULANCE PROCESSING:
- Search: distance mentions, licensing requirements
- Extract: specific distances, proportionate calculations, authority requirements
- Focus: coverage limits and regulatory compliance
`,
	ragtypes.QueryMaternityWellBaby: `MATERNITY/WELL BABY PROCESSING:
- Search: "well mother", "well baby", period options, routine care definitions
- Extract: coverage periods, care inclusions, exclusions
- Focus: comprehensive coverage scope and conditions
`,
	ragtypes.QueryExclusion: `EXCLUSIONS PROCESSING:
- Search: exclusions sections, "not covered" statements
- Extract: complete exclusion lists and conditions
- Focus: comprehensive compilation of all exclusions
`,
	ragtypes.QueryDefinition: `DEFINITIONS PROCESSING:
- Search: definitions sections, criteria specifications
- Extract: complete definitions with all requirements
- Focus: detailed criteria and qualification requirements
`,
	ragtypes.QueryTableBenefits: `TABLE/BENEFITS PROCESSING:
- Search: structured data, benefit schedules, payment information
- Extract: specific benefit details and payment procedures
- Focus: plan variations and special conditions
`,
	ragtypes.QueryCoverage: `COVERAGE PROCESSING:
- Search: benefit sections, coverage descriptions
- Extract: coverage scope, conditions, and limitations
- Focus: comprehensive coverage explanation
`,
	ragtypes.QueryGeneral: `GENERAL PROCESSING:
- Search: all context sections systematically
- Extract: relevant information based on question focus
- Focus: comprehensive and accurate response
`,
}

var formatInstructions = map[ragtypes.QueryType]string{
	ragtypes.QueryGracePeriod: `RESPONSE FORMAT:
Provide the specific grace period duration first, followed by any conditions.
`,
	ragtypes.QueryWaitingPeriod: `RESPONSE FORMAT:
State the specific waiting period with exact timeframe and application.
`,
	ragtypes.QueryNumericalLimit: `RESPONSE FORMAT:
Give the exact number or percentage first, then the condition it applies under.
`,
	ragtypes.QueryUINRegulatory: `RESPONSE FORMAT:
Reproduce the identifier exactly as it appears in the document.
`,
	ragtypes.QueryAirAmbulance: `RESPONSE FORMAT:
State the coverage limit and any distance or authority requirement together.
`,
	ragtypes.QueryMaternityWellBaby: `RESPONSE FORMAT:
State the coverage period and what it includes in a single sentence where possible.
`,
	ragtypes.QueryExclusion: `RESPONSE FORMAT:
List every exclusion found, separated by semicolons if more than one applies.
`,
	ragtypes.QueryDefinition: `RESPONSE FORMAT:
State the definition in full, including every qualifying criterion.
`,
	ragtypes.QueryTableBenefits: `RESPONSE FORMAT:
State the relevant benefit row's figures exactly as tabulated.
`,
	ragtypes.QueryCoverage: `RESPONSE FORMAT:
State what is covered and under what conditions, in one sentence where possible.
`,
	ragtypes.QueryGeneral: `RESPONSE FORMAT:
Answer in a single sentence when possible.
`,
}

const fixedSuffix = `
RESPONSE RULES:
- Prefer a single-sentence answer when the context supports it.
- Reproduce numbers, dates, and codes verbatim from the context.
- Say "information not available" only after exhausting the provided context.
`

// Build assembles the prompt per spec.md §4.7: role preamble, context
// block, query-type banner, question, analysis framework, per-type
// processing hints, per-type format instructions, fixed suffix.
func Build(question string, chunks []ragtypes.FusedChunk, queryType ragtypes.QueryType) string {
	var b strings.Builder

	label := strings.ReplaceAll(string(queryType), "_", " ")
	fmt.Fprintf(&b, "You are an expert insurance document analyst specializing in %s queries. ", label)
	b.WriteString("Your task is to provide precise, accurate answers based exclusively on the provided document context.\n\n")

	b.WriteString("CONTEXT FROM DOCUMENT:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[SECTION %d]", i+1)
		if c.Text != "" {
			b.WriteString("\n")
		}
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "QUERY CLASSIFICATION: %s\n\n", strings.ToUpper(string(queryType)))
	fmt.Fprintf(&b, "QUESTION: %s\n\n", question)
	b.WriteString(analysisFramework)
	b.WriteString("\n")

	if hint, ok := processingHints[queryType]; ok {
		b.WriteString(hint)
	} else {
		b.WriteString(processingHints[ragtypes.QueryGeneral])
	}
	b.WriteString("\n")

	if format, ok := formatInstructions[queryType]; ok {
		b.WriteString(format)
	} else {
		b.WriteString(formatInstructions[ragtypes.QueryGeneral])
	}

	b.WriteString(fixedSuffix)
	return b.String()
}

// GenParams is the per-type generation configuration of spec.md §4.7.
type GenParams struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxOutput   int
}

// ParamsFor returns the generation parameters for queryType.
func ParamsFor(queryType ragtypes.QueryType) GenParams {
	p := GenParams{Temperature: 0.10, TopP: 0.80, TopK: 10, MaxOutput: 2048}

	switch queryType {
	case ragtypes.QueryNumericalLimit, ragtypes.QueryUINRegulatory:
		p.Temperature = 0.05
		p.TopK = 5
	}
	switch queryType {
	case ragtypes.QueryExclusion:
		p.MaxOutput = 3000
	case ragtypes.QueryDefinition, ragtypes.QueryCoverage:
		p.MaxOutput = 2500
	}
	return p
}
