// Command ragserver exposes ProcessDocumentQueries over HTTP, wiring
// postgres (gorm) for document persistence, Redis for the doc/QA
// cache, RabbitMQ for lifecycle events, OpenTelemetry for tracing,
// and Prometheus for request metrics. Grounded on
// go-enhanced-rag-service/main.go's NewEnhancedRAGService/setupRoutes
// wiring pattern.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"policy-qa-core/internal/docevents"
	"policy-qa-core/internal/docfetch"
	"policy-qa-core/internal/docstore"
	"policy-qa-core/internal/llmdriver"
	"policy-qa-core/internal/observability/tracing"
	"policy-qa-core/internal/promptbuilder"
	"policy-qa-core/internal/ragcache"
	"policy-qa-core/internal/ragconfig"
	"policy-qa-core/internal/ragindex"
	"policy-qa-core/internal/orchestrator"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "policy_qa_requests_total",
		Help: "Total ProcessDocumentQueries requests by outcome.",
	}, []string{"outcome"})

	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "policy_qa_request_duration_seconds",
		Help:    "ProcessDocumentQueries request latency.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

type runRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type runResponse struct {
	Answers []string `json:"answers"`
}

type metadataRequest struct {
	Documents string `json:"documents"`
	Question  string `json:"question"`
}

func main() {
	cfg := ragconfig.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	shutdown, err := tracing.Init(ctx, "policy-qa-core")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdown(ctx)
	}

	store, err := docstore.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect document store", zap.Error(err))
	}
	defer store.Close()

	cache, err := ragcache.NewRedis(cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
	}
	var qaCache ragcache.Cache
	if cache != nil {
		qaCache = cache
	} else {
		qaCache = ragcache.NewInMemory()
	}

	events, err := docevents.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Warn("rabbitmq unavailable, lifecycle events disabled", zap.Error(err))
	}

	embedder := &httpEmbedder{baseURL: cfg.LLMBackendURL, dim: 384}
	index, err := ragindex.NewPGIndex(ctx, cfg.DatabaseURL, embedder)
	if err != nil {
		log.Fatal("connect embedding index", zap.Error(err))
	}
	defer index.Close()

	o := &orchestrator.Orchestrator{
		Index:   index,
		Cache:   qaCache,
		Backend: &httpLLMBackend{baseURL: cfg.LLMBackendURL},
		Limiter: llmdriver.NewRateLimiter(cfg.LLMRateLimit, cfg.MaxTokensPerDay),
		Config:  cfg,
		Log:     log,
		Fetch:   docfetch.Fetch,
		Parse:   docfetch.Parse,
	}

	router := setupRoutes(o, store, events, log)
	log.Info("policy-qa-core listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func setupRoutes(o *orchestrator.Orchestrator, store *docstore.Store, events *docevents.Publisher, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(bearerAuth())
	{
		v1.POST("/hackrx/run", handleRun(o, store, events, log))
		v1.POST("/documents/metadata", handleMetadata(o))
	}

	return router
}

func bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		c.Next()
	}
}

func handleRun(o *orchestrator.Orchestrator, store *docstore.Store, events *docevents.Publisher, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			requestsTotal.WithLabelValues("invalid_request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		answers, err := o.ProcessDocumentQueries(c.Request.Context(), req.Documents, req.Questions)
		requestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			requestsTotal.WithLabelValues("error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		requestsTotal.WithLabelValues("ok").Inc()

		if store != nil {
			_ = store.Upsert(c.Request.Context(), docstore.StoredDocument{
				DocID: ragcache.KeyHash(req.Documents), URL: req.Documents, IngestedAt: time.Now(),
			})
		}
		if events != nil {
			_ = events.Ingested(ragcache.KeyHash(req.Documents), req.Documents, time.Now())
		}

		c.JSON(http.StatusOK, runResponse{Answers: answers})
	}
}

// handleMetadata is the ingest-time-only metadata endpoint: document
// type/complexity indicators plus the related/conflicting clause
// types for an optional question, never consulted by handleRun's
// answer pipeline.
func handleMetadata(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req metadataRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		insight, err := o.AnalyzeDocument(c.Request.Context(), req.Documents, req.Question)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, insight)
	}
}

// httpEmbedder calls an external embedding endpoint (e.g. an Ollama
// /api/embeddings-compatible service) — the Embedder collaborator
// contract of spec.md §6, kept outside the core per its "external
// collaborator specified only by the contract it consumes" framing.
type httpEmbedder struct {
	baseURL string
	dim     int
}

func (e *httpEmbedder) Dimension() int { return e.dim }

func (e *httpEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		body, _ := json.Marshal(map[string]string{"input": text})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("httpEmbedder: embed request: %w", err)
		}
		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("httpEmbedder: decode response: %w", err)
		}
		out[i] = parsed.Embedding
	}
	return out, nil
}

// httpLLMBackend implements llmdriver.Backend against an external
// text-generation endpoint (e.g. a local Ollama-compatible server).
type httpLLMBackend struct {
	baseURL string
}

func (b *httpLLMBackend) Complete(ctx context.Context, prompt string, params promptbuilder.GenParams) (llmdriver.Generation, error) {
	start := time.Now()
	reqBody, _ := json.Marshal(map[string]interface{}{
		"prompt":      prompt,
		"temperature": params.Temperature,
		"top_p":       params.TopP,
		"top_k":       params.TopK,
		"max_tokens":  params.MaxOutput,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return llmdriver.Generation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return llmdriver.Generation{}, fmt.Errorf("httpLLMBackend: generate request: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Text         string `json:"response"`
		FinishReason string `json:"finish_reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return llmdriver.Generation{}, fmt.Errorf("httpLLMBackend: decode response: %w", err)
	}
	if parsed.FinishReason == "" {
		parsed.FinishReason = "stop"
	}

	return llmdriver.Generation{
		Text:         parsed.Text,
		Tokens:       llmdriver.EstimateTokens(prompt, parsed.Text),
		LatencyMS:    time.Since(start).Milliseconds(),
		FinishReason: parsed.FinishReason,
	}, nil
}
