// Package ragerrors defines the sentinel error kinds the core pipeline
// raises, in place of the exception-driven control flow of the source
// system (spec §9: "Exception-driven control flow").
package ragerrors

import "errors"

var (
	// ErrInvalidRequest marks a bad doc_url or a question outside the
	// [3,500]-char / [1,20]-count bounds. Rejected at the boundary.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrParseFailure marks an unsupported MIME type, empty extracted
	// text, or a decoder crash. Aborts the whole batch.
	ErrParseFailure = errors.New("document parse failure")

	// ErrIndexUnavailable marks the embedding service or vector index
	// being unreachable. Aborts the batch.
	ErrIndexUnavailable = errors.New("embedding index unavailable")

	// ErrRetrievalEmpty marks zero hits surviving all variants and
	// passes for one question. No component returns it: the
	// orchestrator checks for an empty hit list directly and answers
	// with CannedNoInformation.
	ErrRetrievalEmpty = errors.New("no relevant chunks retrieved")

	// ErrLLMBlocked marks a persistent safety-finish block after the
	// single allowed safety retry.
	ErrLLMBlocked = errors.New("llm response blocked by safety filter")

	// ErrLLMQuotaExhausted marks the daily token budget crossing its
	// near-exhaustion threshold.
	ErrLLMQuotaExhausted = errors.New("llm daily token quota exhausted")

	// ErrLLMTransient marks a retryable backend error (timeout, 5xx).
	ErrLLMTransient = errors.New("llm transient failure")

	// ErrCacheFailure marks a cache backend error. Always swallowed
	// and logged by the caller; never propagated.
	ErrCacheFailure = errors.New("cache operation failed")
)

// CannedApology is the literal string the orchestrator substitutes for
// any question that fails irrecoverably (LLM block/quota/transient
// after retries). It always occupies the question's output slot.
const CannedApology = "I apologize, but I'm unable to process this question at the moment. Please try again."

// CannedNoInformation is the literal string returned when retrieval
// yields no hits (spec §8 S4).
const CannedNoInformation = "I couldn't find relevant information in the document to answer this question."
