// Package reranker scores (query, passage) pairs jointly.
//
// Scores are relevance estimates in roughly [0,1], returned in input order
// so callers can fuse them with upstream similarity without re-sorting.
package reranker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRerankFailed indicates the scorer could not produce a score per text.
	ErrRerankFailed = errors.New("rerank failed")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDisabled is returned by the "none" reranker.
	ErrDisabled = errors.New("reranker disabled")
)

// Reranker scores every text against the query in one batched call.
type Reranker interface {
	// Score returns one score per text, aligned with texts.
	Score(ctx context.Context, query string, texts []string) ([]float64, error)

	// ModelName identifies the scorer in logs and metrics.
	ModelName() string

	// Close releases any resources held by the reranker.
	Close() error
}

// Config selects and configures a reranker.
type Config struct {
	// Provider is "tei", "overlap" or "none".
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// New creates the reranker named by cfg.Provider.
func New(cfg Config) (Reranker, error) {
	switch cfg.Provider {
	case "tei", "":
		return NewTEIReranker(TEIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
			Logger:  cfg.Logger,
		})
	case "overlap":
		return NewOverlapReranker(), nil
	case "none":
		return disabled{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown reranker provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

type disabled struct{}

func (disabled) Score(context.Context, string, []string) ([]float64, error) {
	return nil, ErrDisabled
}

func (disabled) ModelName() string { return "none" }
func (disabled) Close() error      { return nil }
