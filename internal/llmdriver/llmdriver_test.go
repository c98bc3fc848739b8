package llmdriver

import (
	"context"
	"testing"
	"time"

	"policy-qa-core/internal/promptbuilder"
	"policy-qa-core/internal/ragerrors"
	"policy-qa-core/internal/ragtypes"
)

type fakeBackend struct {
	responses []Generation
	errs      []error
	calls     int
}

func (f *fakeBackend) Complete(ctx context.Context, prompt string, params promptbuilder.GenParams) (Generation, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var gen Generation
	if i < len(f.responses) {
		gen = f.responses[i]
	}
	return gen, err
}

func noSleep(time.Duration) {}

func TestGenerateSucceedsFirstTry(t *testing.T) {
	backend := &fakeBackend{responses: []Generation{{Text: "the grace period is thirty days", FinishReason: "stop", Tokens: 10}}}
	limiter := NewRateLimiter(15, 1_000_000)
	gen, err := Generate(context.Background(), backend, limiter, "prompt", promptbuilder.GenParams{}, noSleep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Text == "" {
		t.Fatal("expected non-empty generated text")
	}
}

func TestGenerateRetriesSafetyOnceThenBlocks(t *testing.T) {
	backend := &fakeBackend{responses: []Generation{
		{FinishReason: "safety"},
		{FinishReason: "safety"},
	}}
	limiter := NewRateLimiter(15, 1_000_000)
	_, err := Generate(context.Background(), backend, limiter, "prompt", promptbuilder.GenParams{}, noSleep)
	if err != ragerrors.ErrLLMBlocked {
		t.Fatalf("expected ErrLLMBlocked after persistent safety block, got %v", err)
	}
}

func TestEstimateTokens(t *testing.T) {
	tokens := EstimateTokens("hello", "world")
	if tokens <= 0 {
		t.Fatalf("expected positive token estimate, got %d", tokens)
	}
}

func TestRateLimiterQuotaExhausted(t *testing.T) {
	limiter := NewRateLimiter(15, 100)
	limiter.RecordTokens(96)
	if err := limiter.Wait(time.Now(), noSleep); err != ragerrors.ErrLLMQuotaExhausted {
		t.Fatalf("expected ErrLLMQuotaExhausted at 95%% of budget, got %v", err)
	}
}

func TestPostProcessStripsPrefixAndPunctuates(t *testing.T) {
	got := PostProcess("based on the context provided, the grace period is thirty days", ragtypes.QueryGracePeriod)
	if got != "The grace period is thirty days." {
		t.Fatalf("unexpected post-processed text: %q", got)
	}
}

func TestPostProcessRewritesPercent(t *testing.T) {
	got := PostProcess("the limit is 5 percent of sum insured", ragtypes.QueryNumericalLimit)
	if got != "The limit is 5% of sum insured." {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestConfidenceInformationNotAvailable(t *testing.T) {
	c := Confidence("Information not available in the provided context.", ragtypes.QueryGeneral)
	if c != 0.1 {
		t.Fatalf("expected confidence 0.1 for a not-available answer, got %v", c)
	}
}

func TestConfidenceClamped(t *testing.T) {
	c := Confidence("Exactly 36 months waiting period applies specifically to pre-existing diseases and conditions listed in the schedule.", ragtypes.QueryUINRegulatory)
	if c < 0 || c > 1 {
		t.Fatalf("confidence out of range: %v", c)
	}
}
