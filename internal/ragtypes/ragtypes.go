// Package ragtypes holds the data-model entities shared across the
// retrieval pipeline (spec.md §3), kept in one package so that
// textnorm, expander, clause, retriever, fusion, classify,
// promptbuilder and orchestrator can all depend on the same plain
// structs without import cycles.
package ragtypes

// ChunkText is a non-empty, normalized slice of document text produced
// by the chunker. Length is in [75, 1.5*target] chars.
type ChunkText struct {
	Text  string
	Index int
}

// IndexedChunk is a chunk once it has been assigned a chunk_id by the
// EmbeddingIndex (monotonic at insertion time).
type IndexedChunk struct {
	ChunkID    int
	DocID      string
	ChunkIndex int
	Text       string
	Meta       map[string]any
}

// ClauseType is the closed enum of insurance clause families
// (spec.md §3).
type ClauseType string

const (
	ClauseWaitingPeriod         ClauseType = "waiting_period"
	ClauseGracePeriod           ClauseType = "grace_period"
	ClauseCoverage              ClauseType = "coverage"
	ClauseExclusion             ClauseType = "exclusion"
	ClausePremium               ClauseType = "premium"
	ClauseMaternity             ClauseType = "maternity"
	ClausePreExisting           ClauseType = "pre_existing"
	ClauseDeductible            ClauseType = "deductible"
	ClauseAirAmbulance          ClauseType = "air_ambulance"
	ClauseDistanceTravel        ClauseType = "distance_travel"
	ClauseWellMother            ClauseType = "well_mother"
	ClauseWellBaby              ClauseType = "well_baby"
	ClauseRoutineCare           ClauseType = "routine_care"
	ClauseRegulatory            ClauseType = "regulatory"
	ClauseLicensing             ClauseType = "licensing"
	ClauseTableBenefits         ClauseType = "table_benefits"
	ClauseMultipleBirth         ClauseType = "multiple_birth"
	ClauseProportionatePayment  ClauseType = "proportionate_payment"
	ClausePeriodOptions         ClauseType = "period_options"
	ClauseMedicalExamination    ClauseType = "medical_examination"
	ClauseSumInsuredLimits      ClauseType = "sum_insured_limits"
	ClausePlanTypes             ClauseType = "plan_types"
	ClauseAyushTreatment        ClauseType = "ayush_treatment"
	ClauseHospitalDefinition    ClauseType = "hospital_definition"
	ClauseRoomRent              ClauseType = "room_rent"
	ClauseCoPayment             ClauseType = "co_payment"
	ClauseNoClaimBonus          ClauseType = "no_claim_bonus"
	ClauseOrganDonor            ClauseType = "organ_donor"
	ClauseHealthCheckup         ClauseType = "health_checkup"
	ClauseModernTreatment       ClauseType = "modern_treatment"
	ClauseDayCareProcedure      ClauseType = "day_care_procedure"
)

// QueryType is the 11-way classification used to select a prompt
// template and generation parameters (spec.md §3/§4.2).
type QueryType string

const (
	QueryGracePeriod       QueryType = "GracePeriod"
	QueryWaitingPeriod     QueryType = "WaitingPeriod"
	QueryCoverage          QueryType = "Coverage"
	QueryExclusion         QueryType = "Exclusion"
	QueryNumericalLimit    QueryType = "NumericalLimit"
	QueryDefinition        QueryType = "Definition"
	QueryUINRegulatory     QueryType = "UINRegulatory"
	QueryAirAmbulance      QueryType = "AirAmbulance"
	QueryMaternityWellBaby QueryType = "MaternityWellBaby"
	QueryTableBenefits     QueryType = "TableBenefits"
	QueryGeneral           QueryType = "General"
)

// ComplexTypes is the set of QueryTypes that widen ChunkFusion's
// output to 6-8 chunks instead of 5 (spec.md §4.6, §4.4 llm_client.py
// _get_chunk_limit).
var ComplexTypes = map[QueryType]bool{
	QueryExclusion:         true,
	QueryTableBenefits:     true,
	QueryCoverage:          true,
	QueryMaternityWellBaby: true,
}

// QueryVariant is a rewritten form of the question used to broaden
// vector-search recall (spec.md §3/§4.3).
type QueryVariant struct {
	Text          string
	PriorityScore float64
}

// SearchHit is a retrieved chunk with its effective score for one
// pass/variant (spec.md §3/§4.4).
type SearchHit struct {
	ChunkID      int
	Score        float64
	Text         string
	DocID        string
	ChunkIndex   int
	MatchedQuery string
	SearchPass   int
}

// ClauseMatch is the clause-scored form of a candidate chunk
// (spec.md §3/§4.5).
type ClauseMatch struct {
	Text              string
	SimilarityScore   float64
	DocID             string
	ChunkIndex        int
	ClauseType        ClauseType
	Confidence        float64
	PatternMatches    []string
	KeywordDensity    float64
	ContextRelevance  float64
	RegulatoryScore   float64
}

// FusedChunk is a SearchHit's identity and text plus the final
// ChunkFusion score (spec.md §4.6). The clause confidence is folded
// into Final and not stored separately.
type FusedChunk struct {
	ChunkID    int
	Text       string
	DocID      string
	ChunkIndex int
	Final      float64
}

// Clamp01 clamps a float64 to [0,1], used by every scoring formula in
// the pipeline (spec.md §8.4: "All computed scores ... are in [0,1]").
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
