package orchestrator

import (
	"context"
	"testing"
	"time"

	"policy-qa-core/internal/docfetch"
	"policy-qa-core/internal/llmdriver"
	"policy-qa-core/internal/promptbuilder"
	"policy-qa-core/internal/ragcache"
	"policy-qa-core/internal/ragconfig"
	"policy-qa-core/internal/ragindex"
)

type fakeEmbedder struct{ dim int }

func (f fakeEmbedder) Dimension() int { return f.dim }

func (f fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		for _, r := range t {
			v[int(r)%f.dim] += 1
		}
		out[i] = v
	}
	return out, nil
}

type fakeBackend struct{}

func (fakeBackend) Complete(ctx context.Context, prompt string, params promptbuilder.GenParams) (llmdriver.Generation, error) {
	return llmdriver.Generation{Text: "A grace period of thirty days is provided for premium payment.", FinishReason: "stop", Tokens: 20}, nil
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	idx := ragindex.NewInMemory(fakeEmbedder{dim: 32})
	cache := ragcache.NewInMemory()
	cfg := &ragconfig.Config{
		ChunkSize: 1200, ChunkOverlap: 250, MaxQueryVariations: 20,
		ConcurrentQuestions: 3, DocCacheTTLSeconds: 7200, QACacheTTLSeconds: 3600,
	}

	return &Orchestrator{
		Index:   idx,
		Cache:   cache,
		Backend: fakeBackend{},
		Limiter: llmdriver.NewRateLimiter(15, 1_000_000),
		Config:  cfg,
		Sleep:   func(time.Duration) {},
		Fetch: func(ctx context.Context, docURL string) (docfetch.Fetched, error) {
			return docfetch.Fetched{DocID: "doc1", URL: docURL, MIME: "text/plain", Bytes: []byte(sampleDocument)}, nil
		},
		Parse: func(mime string, data []byte) (docfetch.Parsed, error) {
			return docfetch.Parsed{Text: string(data), Pages: 1}, nil
		},
	}
}

const sampleDocument = `SECTION: Premium Payment

A grace period of thirty days is provided for premium payment after the due date to renew or continue the policy without losing continuity benefits for all waiting periods and benefits under this policy, as per the terms and conditions stated herein.

SECTION: Waiting Periods

There is a waiting period of thirty-six months for pre-existing diseases from the date of policy inception, applicable uniformly across all plan variants offered under this product.
`

func TestProcessDocumentQueriesOrderPreserved(t *testing.T) {
	o := newTestOrchestrator(t)
	questions := []string{
		"What is the grace period for premium payment?",
		"What is the waiting period for pre-existing diseases?",
	}
	answers, err := o.ProcessDocumentQueries(context.Background(), "https://example.com/policy.pdf", questions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers) != len(questions) {
		t.Fatalf("expected %d answers, got %d", len(questions), len(answers))
	}
	for i, a := range answers {
		if a == "" {
			t.Fatalf("expected non-empty answer at index %d", i)
		}
	}
}

func TestProcessDocumentQueriesRejectsInvalidURL(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.ProcessDocumentQueries(context.Background(), "not-a-url", []string{"What is covered?"})
	if err == nil {
		t.Fatal("expected an error for an invalid doc_url")
	}
}

func TestProcessDocumentQueriesRejectsTooManyQuestions(t *testing.T) {
	o := newTestOrchestrator(t)
	questions := make([]string, 21)
	for i := range questions {
		questions[i] = "What is covered under this policy?"
	}
	_, err := o.ProcessDocumentQueries(context.Background(), "https://example.com/policy.pdf", questions)
	if err == nil {
		t.Fatal("expected an error for more than 20 questions")
	}
}

func TestProcessDocumentQueriesCachesAcrossCalls(t *testing.T) {
	o := newTestOrchestrator(t)
	questions := []string{"What is the grace period for premium payment?"}

	first, err := o.ProcessDocumentQueries(context.Background(), "https://example.com/policy.pdf", questions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o.Fetch = func(ctx context.Context, docURL string) (docfetch.Fetched, error) {
		t.Fatal("expected fetch not to be called on a warm document cache")
		return docfetch.Fetched{}, nil
	}

	second, err := o.ProcessDocumentQueries(context.Background(), "https://example.com/policy.pdf", questions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first[0] != second[0] {
		t.Fatalf("expected identical cached answer, got %q vs %q", first[0], second[0])
	}
}

func TestAnalyzeDocumentReturnsClauseRelations(t *testing.T) {
	o := newTestOrchestrator(t)
	insight, err := o.AnalyzeDocument(context.Background(), "https://example.com/policy.pdf", "What is the waiting period for pre-existing diseases?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if insight.Metadata.ComplexityScore < 0 {
		t.Fatalf("expected a non-negative complexity score, got %v", insight.Metadata.ComplexityScore)
	}
	if len(insight.ClauseTypes) == 0 {
		t.Fatal("expected at least one identified clause type for a waiting-period question")
	}
}

func TestAnalyzeDocumentOmitsClauseTypesWithoutQuestion(t *testing.T) {
	o := newTestOrchestrator(t)
	insight, err := o.AnalyzeDocument(context.Background(), "https://example.com/policy.pdf", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insight.ClauseTypes) != 0 {
		t.Fatalf("expected no clause types for an empty question, got %v", insight.ClauseTypes)
	}
}

func TestProcessDocumentQueriesAnswersUnrelatedQuestion(t *testing.T) {
	o := newTestOrchestrator(t)
	answers, err := o.ProcessDocumentQueries(context.Background(), "https://example.com/policy.pdf", []string{"What is the square root of a banana?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers) != 1 || answers[0] == "" {
		t.Fatal("expected a single non-empty answer for an unrelated question")
	}
}
