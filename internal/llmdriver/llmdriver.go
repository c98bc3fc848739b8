// Package llmdriver implements the LLMDriver half of spec.md §4.7: a
// retrying, rate-limited, token-budgeted wrapper around an external
// text-generation backend, plus the response post-processing and
// confidence scoring steps. Grounded on
// original_source/app/core/llm_client.py's _check_rate_limits/
// _generate_with_enhanced_retry/_process_response_text/
// _estimate_tokens/_calculate_confidence_score/_post_process_response.
package llmdriver

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"policy-qa-core/internal/promptbuilder"
	"policy-qa-core/internal/ragerrors"
	"policy-qa-core/internal/ragtypes"
)

// Generation is the LLMDriver contract's raw response (spec.md §4.7).
type Generation struct {
	Text         string
	Tokens       int
	LatencyMS    int64
	FinishReason string
}

// Backend is the external collaborator: a single text-completion
// call. Safety-block finishes are signalled via FinishReason =
// "safety", transient errors via a returned error.
type Backend interface {
	Complete(ctx context.Context, prompt string, params promptbuilder.GenParams) (Generation, error)
}

// RateLimiter enforces spec.md §5's sliding-60s-window request cap and
// daily token budget.
type RateLimiter struct {
	mu              sync.Mutex
	capacity        int
	requestTimes    []time.Time
	dailyTokenLimit int64
	dailyTokensUsed int64
	dayStart        time.Time
}

func NewRateLimiter(capacity int, dailyTokenLimit int64) *RateLimiter {
	return &RateLimiter{capacity: capacity, dailyTokenLimit: dailyTokenLimit}
}

// Wait blocks via sleep (real time.Sleep when nil) until a request
// slot is free within the sliding 60s window, and returns
// ragerrors.ErrLLMQuotaExhausted once daily usage exceeds 95% of the
// budget.
func (r *RateLimiter) Wait(now time.Time, sleep func(time.Duration)) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	for {
		r.mu.Lock()
		if r.dayStart.IsZero() {
			r.dayStart = now
		} else if now.Sub(r.dayStart) > 24*time.Hour {
			r.dayStart = now
			r.dailyTokensUsed = 0
		}
		if float64(r.dailyTokensUsed) >= float64(r.dailyTokenLimit)*0.95 {
			r.mu.Unlock()
			return ragerrors.ErrLLMQuotaExhausted
		}

		cutoff := now.Add(-60 * time.Second)
		kept := r.requestTimes[:0]
		for _, t := range r.requestTimes {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		r.requestTimes = kept

		if len(r.requestTimes) < r.capacity {
			r.requestTimes = append(r.requestTimes, now)
			r.mu.Unlock()
			return nil
		}

		oldest := r.requestTimes[0]
		wait := 60*time.Second - now.Sub(oldest)
		r.mu.Unlock()
		if wait > 0 {
			sleep(wait)
		}
		now = now.Add(wait)
	}
}

func (r *RateLimiter) RecordTokens(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dailyTokensUsed += int64(n)
}

// EstimateTokens mirrors _estimate_tokens: ceil(1.2*(len(prompt)+len(response))/3.5).
func EstimateTokens(prompt, response string) int {
	total := float64(len(prompt) + len(response))
	return int(math.Ceil(1.2 * total / 3.5))
}

const maxRetries = 4

var backoffSchedule = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 15 * time.Second}

// Generate makes up to maxRetries attempts in total, retrying after a
// transient error or a safety-block finish (safety is retried at most
// once; a persistent block surfaces as ragerrors.ErrLLMBlocked).
func Generate(ctx context.Context, backend Backend, limiter *RateLimiter, prompt string, params promptbuilder.GenParams, sleep func(time.Duration)) (Generation, error) {
	var safetyRetries int
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := limiter.Wait(time.Now(), sleep); err != nil {
			return Generation{}, err
		}

		gen, err := backend.Complete(ctx, prompt, params)
		if err != nil {
			lastErr = ragerrors.ErrLLMTransient
			sleepBackoff(attempt, sleep)
			continue
		}

		if strings.EqualFold(gen.FinishReason, "safety") {
			if safetyRetries >= 1 {
				return Generation{}, ragerrors.ErrLLMBlocked
			}
			safetyRetries++
			sleepBackoff(attempt, sleep)
			continue
		}

		limiter.RecordTokens(gen.Tokens)
		return gen, nil
	}
	if lastErr != nil {
		return Generation{}, lastErr
	}
	return Generation{}, ragerrors.ErrLLMTransient
}

func sleepBackoff(attempt int, sleep func(time.Duration)) {
	if sleep == nil {
		return
	}
	idx := attempt
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	sleep(backoffSchedule[idx])
}

var leadingPhrases = []string{
	"based on the context provided, ",
	"according to the document, ",
	"the document states that ",
	"answer: ",
	"based on the provided context, ",
	"from the document, ",
	"the policy document indicates that ",
	"based on the insurance document, ",
	"according to the policy, ",
}

var percentRewrite = regexp.MustCompile(`(?i)(\d+)\s*percent`)

// PostProcess strips known leading phrases, fixes capitalization,
// ensures terminal punctuation, and rewrites "N percent" to "N%" for
// NumericalLimit answers.
func PostProcess(text string, queryType ragtypes.QueryType) string {
	text = strings.TrimSpace(text)

	lower := strings.ToLower(text)
	for _, prefix := range leadingPhrases {
		if strings.HasPrefix(lower, prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			lower = strings.ToLower(text)
			break
		}
	}

	if text == "" {
		return text
	}

	if r := []rune(text); len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
		text = strings.ToUpper(string(r[0])) + string(r[1:])
	}

	if queryType == ragtypes.QueryNumericalLimit {
		text = percentRewrite.ReplaceAllString(text, "$1%")
	}

	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "?") && !strings.HasSuffix(text, "!") {
		text += "."
	}
	return text
}

var uinShaped = regexp.MustCompile(`[A-Z]{2,}\d{2,}`)
var hasDigit = regexp.MustCompile(`\d`)

// Confidence mirrors _calculate_confidence_score.
func Confidence(text string, queryType ragtypes.QueryType) float64 {
	lower := strings.ToLower(text)
	c := 0.5

	if len(text) > 50 {
		c += 0.2
	}
	if hasDigit.MatchString(text) {
		c += 0.1
	}
	if strings.Contains(lower, "exactly") || strings.Contains(lower, "specifically") {
		c += 0.1
	}
	if queryType == ragtypes.QueryNumericalLimit && strings.Contains(text, "%") {
		c += 0.1
	}
	if queryType == ragtypes.QueryUINRegulatory && uinShaped.MatchString(text) {
		c += 0.15
	}

	if strings.Contains(lower, "information not available") {
		c = 0.1
	} else if strings.Contains(lower, "may") || strings.Contains(lower, "might") {
		c -= 0.1
	}

	return ragtypes.Clamp01(c)
}
