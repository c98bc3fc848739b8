// Package orchestrator implements ProcessDocumentQueries, spec.md
// §4.8's single primary operation: cache-or-ingest a document, then
// classify/expand/retrieve/match/fuse/prompt/generate/post-process
// each question under bounded concurrency, with cache-backed
// short-circuiting at both the document and per-question level.
// Grounded on go-enhanced-rag-service/main.go's NewEnhancedRAGService
// request-handling pipeline and
// original_source/app/main.py's process_document_queries endpoint.
package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"policy-qa-core/internal/chunker"
	"policy-qa-core/internal/classify"
	"policy-qa-core/internal/clause"
	"policy-qa-core/internal/docfetch"
	"policy-qa-core/internal/expander"
	"policy-qa-core/internal/fusion"
	"policy-qa-core/internal/llmdriver"
	"policy-qa-core/internal/promptbuilder"
	"policy-qa-core/internal/ragcache"
	"policy-qa-core/internal/ragconfig"
	"policy-qa-core/internal/ragerrors"
	"policy-qa-core/internal/ragindex"
	"policy-qa-core/internal/ragtypes"
	"policy-qa-core/internal/retriever"
	"policy-qa-core/internal/textnorm"
)

const clauseMatchThreshold = 0.30

// Orchestrator wires every component behind the single
// ProcessDocumentQueries entry point.
type Orchestrator struct {
	Index   ragindex.Index
	Cache   ragcache.Cache
	Backend llmdriver.Backend
	Limiter *llmdriver.RateLimiter
	Config  *ragconfig.Config
	Log     *zap.Logger
	Sleep   func(time.Duration) // overridable for tests; nil uses time.Sleep

	Fetch func(ctx context.Context, docURL string) (docfetch.Fetched, error)
	Parse func(mime string, data []byte) (docfetch.Parsed, error)
}

type indexedDoc struct {
	DocID  string               `json:"doc_id"`
	Chunks []ragtypes.ChunkText `json:"chunks"`
}

// ProcessDocumentQueries is spec.md §4.8's `process(doc_url, questions[]) → answers[]`.
func (o *Orchestrator) ProcessDocumentQueries(ctx context.Context, docURL string, questions []string) ([]string, error) {
	if err := validateRequest(docURL, questions); err != nil {
		return nil, err
	}

	doc, err := o.ensureIndexed(ctx, docURL)
	if err != nil {
		return nil, err
	}

	answers := make([]string, len(questions))
	sem := make(chan struct{}, o.Config.ConcurrentQuestions)
	var wg sync.WaitGroup

	for i, q := range questions {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, question string) {
			defer wg.Done()
			defer func() { <-sem }()
			answers[i] = o.answerQuestion(ctx, doc.DocID, question)
		}(i, q)
	}
	wg.Wait()

	return answers, nil
}

func validateRequest(docURL string, questions []string) error {
	u, err := url.Parse(docURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: doc_url must be an absolute http/https URL", ragerrors.ErrInvalidRequest)
	}
	if len(questions) < 1 || len(questions) > 20 {
		return fmt.Errorf("%w: questions must contain 1..20 items", ragerrors.ErrInvalidRequest)
	}
	for _, q := range questions {
		trimmed := strings.TrimSpace(q)
		if len(trimmed) < 3 || len(trimmed) > 500 {
			return fmt.Errorf("%w: each question must be 3..500 chars after trim", ragerrors.ErrInvalidRequest)
		}
	}
	return nil
}

// ensureIndexed reuses a cached document blob under doc:{hash(url)}
// or fetches/parses/normalizes/chunks/caches/indexes it (spec.md
// §4.8 step 1).
func (o *Orchestrator) ensureIndexed(ctx context.Context, docURL string) (indexedDoc, error) {
	key := ragcache.DocKey(docURL)

	raw, err := ragcache.GetOrCompute(ctx, o.Cache, o.Log, key, time.Duration(o.Config.DocCacheTTLSeconds)*time.Second, func() ([]byte, error) {
		doc, err := o.ingest(ctx, docURL)
		if err != nil {
			return nil, err
		}
		return sonic.Marshal(doc)
	})
	if err != nil {
		return indexedDoc{}, err
	}

	var doc indexedDoc
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return indexedDoc{}, fmt.Errorf("%w: decode cached document: %v", ragerrors.ErrParseFailure, err)
	}

	if err := o.Index.Add(ctx, doc.DocID, doc.Chunks); err != nil {
		return indexedDoc{}, fmt.Errorf("%w: %v", ragerrors.ErrIndexUnavailable, err)
	}
	return doc, nil
}

func (o *Orchestrator) ingest(ctx context.Context, docURL string) (indexedDoc, error) {
	fetched, err := o.Fetch(ctx, docURL)
	if err != nil {
		return indexedDoc{}, err
	}

	parsed, err := o.Parse(fetched.MIME, fetched.Bytes)
	if err != nil {
		return indexedDoc{}, err
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return indexedDoc{}, fmt.Errorf("%w: no text extracted from document", ragerrors.ErrParseFailure)
	}

	cleaned := textnorm.Clean(parsed.Text)
	if strings.TrimSpace(cleaned) == "" {
		return indexedDoc{}, fmt.Errorf("%w: normalization produced empty text", ragerrors.ErrParseFailure)
	}

	chunks := chunker.Chunk(cleaned, o.Config.ChunkSize, o.Config.ChunkOverlap)
	return indexedDoc{DocID: fetched.DocID, Chunks: chunks}, nil
}

// answerQuestion runs the per-question pipeline of spec.md §4.8 step
// 2, never propagating an error: any failure yields the canned
// apology so a sibling question's success is unaffected.
func (o *Orchestrator) answerQuestion(ctx context.Context, docID, question string) string {
	key := ragcache.QAKey(docID, question)

	if cached, ok, err := o.Cache.Get(ctx, key); err == nil && ok {
		return string(cached)
	}

	answer, cacheable := o.compute(ctx, docID, question)
	if cacheable {
		if err := o.Cache.Set(ctx, key, []byte(answer), time.Duration(o.Config.QACacheTTLSeconds)*time.Second); err != nil && o.Log != nil {
			o.Log.Warn("qa cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return answer
}

func (o *Orchestrator) compute(ctx context.Context, docID, question string) (string, bool) {
	queryType := classify.Classify(question)
	variants := expander.Expand(question, o.Config.MaxQueryVariations)

	hits, err := retriever.Search(ctx, o.Index, variants)
	if err != nil {
		o.warn("retrieval failed", err)
		return ragerrors.CannedApology, false
	}
	if len(hits) == 0 {
		return ragerrors.CannedNoInformation, true
	}

	candidates := make([]clause.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = clause.Candidate{Text: h.Text, Score: h.Score, DocID: h.DocID, ChunkIndex: h.ChunkIndex}
	}
	matches := clause.Match(question, candidates, clauseMatchThreshold)

	fused := fusion.Fuse(hits, matches, queryType)
	if len(fused) == 0 {
		return ragerrors.CannedNoInformation, true
	}

	prompt := promptbuilder.Build(question, fused, queryType)
	params := promptbuilder.ParamsFor(queryType)

	gen, err := llmdriver.Generate(ctx, o.Backend, o.Limiter, prompt, params, o.Sleep)
	if err != nil {
		o.warn("generation failed", err)
		return ragerrors.CannedApology, false
	}

	return llmdriver.PostProcess(gen.Text, queryType), true
}

func (o *Orchestrator) warn(msg string, err error) {
	if o.Log != nil {
		o.Log.Warn(msg, zap.Error(err))
	}
}

// ClauseRelations is the related/conflicting clause-type neighborhood
// for one identified clause type, surfaced only by AnalyzeDocument.
type ClauseRelations struct {
	Type      ragtypes.ClauseType   `json:"type"`
	Related   []ragtypes.ClauseType `json:"related,omitempty"`
	Conflicts []ragtypes.ClauseType `json:"conflicts,omitempty"`
}

// DocumentInsight is the ingest-time supplemental analysis of
// spec.md §4.2's DocumentMetadata plus clause.RelatedTypes/
// ConflictingTypes, neither of which ProcessDocumentQueries ever
// consults: both are metadata-endpoint-only, never scoring inputs.
type DocumentInsight struct {
	Metadata    textnorm.DocumentMetadata `json:"metadata"`
	ClauseTypes []ClauseRelations         `json:"clause_types,omitempty"`
}

// AnalyzeDocument fetches, parses and normalizes docURL exactly as
// ensureIndexed does, but returns document-type/complexity metadata
// and (when question is non-empty) the related/conflicting clause
// types for whatever families the question implicates, instead of
// indexing chunks or answering anything. Backs the ingest-time
// metadata endpoint only; it shares no cache or index state with
// ProcessDocumentQueries.
func (o *Orchestrator) AnalyzeDocument(ctx context.Context, docURL, question string) (DocumentInsight, error) {
	fetched, err := o.Fetch(ctx, docURL)
	if err != nil {
		return DocumentInsight{}, err
	}
	parsed, err := o.Parse(fetched.MIME, fetched.Bytes)
	if err != nil {
		return DocumentInsight{}, err
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return DocumentInsight{}, fmt.Errorf("%w: no text extracted from document", ragerrors.ErrParseFailure)
	}

	cleaned := textnorm.Clean(parsed.Text)
	insight := DocumentInsight{Metadata: textnorm.AnalyzeMetadata(cleaned)}

	for _, t := range clause.IdentifyTypes(question) {
		insight.ClauseTypes = append(insight.ClauseTypes, ClauseRelations{
			Type:      t,
			Related:   clause.RelatedTypes(t),
			Conflicts: clause.ConflictingTypes(t),
		})
	}
	return insight, nil
}
