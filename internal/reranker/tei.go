package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TEIConfig configures a cross-encoder served by Text Embeddings Inference.
type TEIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	Logger  *zap.Logger
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// TEIReranker calls the TEI /rerank endpoint of a cross-encoder model.
type TEIReranker struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewTEIReranker validates cfg and builds the client.
func NewTEIReranker(cfg TEIConfig) (*TEIReranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: reranker base URL required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("%w: reranker base URL must be http(s), got %q", ErrInvalidConfig, cfg.BaseURL)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TEIReranker{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  client,
		logger:  logger,
	}, nil
}

// Score sends all pairs in one request. Any missing, duplicate or
// non-finite score fails the whole batch.
func (r *TEIReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	start := time.Now()

	payload, err := json.Marshal(rerankRequest{Query: query, Texts: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRerankFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrRerankFailed, err)
	}

	scores, err := alignScores(results, len(texts))
	if err != nil {
		return nil, err
	}

	r.logger.Debug("rerank completed",
		zap.String("model", r.model),
		zap.Int("pairs", len(texts)),
		zap.Duration("elapsed", time.Since(start)))
	return scores, nil
}

// alignScores maps index-tagged results back to input order.
func alignScores(results []rerankResult, n int) ([]float64, error) {
	if len(results) != n {
		return nil, fmt.Errorf("%w: got %d scores for %d texts", ErrRerankFailed, len(results), n)
	}
	scores := make([]float64, n)
	seen := make([]bool, n)
	for _, res := range results {
		if res.Index < 0 || res.Index >= n {
			return nil, fmt.Errorf("%w: score index %d out of range", ErrRerankFailed, res.Index)
		}
		if seen[res.Index] {
			return nil, fmt.Errorf("%w: duplicate score index %d", ErrRerankFailed, res.Index)
		}
		if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
			return nil, fmt.Errorf("%w: non-finite score at index %d", ErrRerankFailed, res.Index)
		}
		seen[res.Index] = true
		scores[res.Index] = res.Score
	}
	return scores, nil
}

// ModelName returns the configured cross-encoder model.
func (r *TEIReranker) ModelName() string { return r.model }

// Close is a no-op for the HTTP client.
func (r *TEIReranker) Close() error { return nil }
