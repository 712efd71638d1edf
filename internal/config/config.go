// Package config provides configuration loading for personarank.
//
// Configuration is built from defaults, an optional YAML file and
// PERSONARANK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/personarank/internal/ranking"
)

// Config holds the complete personarank configuration.
type Config struct {
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Reranker   RerankerConfig   `koanf:"reranker"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Refine     RefineConfig     `koanf:"refine"`
	Inference  InferenceConfig  `koanf:"inference"`
	Output     OutputConfig     `koanf:"output"`
	Batch      BatchConfig      `koanf:"batch"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// EmbeddingsConfig selects the dense retrieval model.
type EmbeddingsConfig struct {
	Provider string   `koanf:"provider"` // fastembed, tei or none
	Model    string   `koanf:"model"`
	BaseURL  string   `koanf:"base_url"` // TEI only
	APIKey   Secret   `koanf:"api_key"`  // TEI only
	CacheDir string   `koanf:"cache_dir"`
	Timeout  Duration `koanf:"timeout"`
}

// RerankerConfig selects the pairwise scoring model.
type RerankerConfig struct {
	Provider string   `koanf:"provider"` // tei, overlap or none
	Model    string   `koanf:"model"`
	BaseURL  string   `koanf:"base_url"`
	APIKey   Secret   `koanf:"api_key"`
	Timeout  Duration `koanf:"timeout"`
}

// RankingConfig holds the numeric contract of the scoring pipeline.
type RankingConfig struct {
	CandidateWindow  int     `koanf:"candidate_window"`
	TopK             int     `koanf:"top_k"`
	SimilarityWeight float64 `koanf:"similarity_weight"`
	RerankWeight     float64 `koanf:"rerank_weight"`
	KeywordBoost     float64 `koanf:"keyword_boost"`
	PenaltyStep      float64 `koanf:"penalty_step"`
	TitlePenalty     float64 `koanf:"title_penalty"`
	PenaltyCap       float64 `koanf:"penalty_cap"`
	MinAdjustment    float64 `koanf:"min_adjustment"`
	MaxAdjustment    float64 `koanf:"max_adjustment"`
}

// RefineConfig controls excerpt cleanup.
type RefineConfig struct {
	MinSentenceLength int `koanf:"min_sentence_length"`
	MaxSentences      int `koanf:"max_sentences"`
	MinRefinedLength  int `koanf:"min_refined_length"`
}

// InferenceConfig controls how model calls are shared across requests.
type InferenceConfig struct {
	// Serialize runs every embedding and rerank call under one mutex.
	// Enable when the model runtime is not safe for concurrent use.
	Serialize bool `koanf:"serialize"`
}

// OutputConfig controls the result record.
type OutputConfig struct {
	IncludeScores bool   `koanf:"include_scores"`
	FileName      string `koanf:"file_name"`
}

// BatchConfig controls multi-collection runs.
type BatchConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// LoggingConfig is the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig controls in-process trace and metric collection.
type TelemetryConfig struct {
	// Enabled collects stage spans and metrics and logs a summary per run.
	Enabled bool `koanf:"enabled"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			Provider: "fastembed",
			Model:    "sentence-transformers/all-MiniLM-L6-v2",
			BaseURL:  "http://localhost:8080",
			Timeout:  Duration(30 * time.Second),
		},
		Reranker: RerankerConfig{
			Provider: "tei",
			Model:    "cross-encoder/ms-marco-MiniLM-L6-v2",
			BaseURL:  "http://localhost:8081",
			Timeout:  Duration(30 * time.Second),
		},
		Ranking: rankingDefaults(ranking.DefaultParams()),
		Refine: RefineConfig{
			MinSentenceLength: 20,
			MaxSentences:      10,
			MinRefinedLength:  50,
		},
		Output: OutputConfig{
			FileName: "result.json",
		},
		Batch: BatchConfig{
			Concurrency: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Embeddings.Provider {
	case "fastembed", "tei", "none":
	default:
		return fmt.Errorf("%w: unknown embeddings provider %q", ErrInvalidConfig, c.Embeddings.Provider)
	}
	if c.Embeddings.Provider == "tei" && c.Embeddings.BaseURL == "" {
		return fmt.Errorf("%w: embeddings.base_url required for tei provider", ErrInvalidConfig)
	}

	switch c.Reranker.Provider {
	case "tei", "overlap", "none":
	default:
		return fmt.Errorf("%w: unknown reranker provider %q", ErrInvalidConfig, c.Reranker.Provider)
	}
	if c.Reranker.Provider == "tei" && c.Reranker.BaseURL == "" {
		return fmt.Errorf("%w: reranker.base_url required for tei provider", ErrInvalidConfig)
	}

	if err := c.Ranking.Validate(); err != nil {
		return err
	}

	if c.Refine.MinSentenceLength < 0 {
		return fmt.Errorf("%w: refine.min_sentence_length must be >= 0", ErrInvalidConfig)
	}
	if c.Refine.MaxSentences < 1 {
		return fmt.Errorf("%w: refine.max_sentences must be >= 1", ErrInvalidConfig)
	}
	if c.Refine.MinRefinedLength < 0 {
		return fmt.Errorf("%w: refine.min_refined_length must be >= 0", ErrInvalidConfig)
	}

	if c.Output.FileName == "" {
		return fmt.Errorf("%w: output.file_name cannot be empty", ErrInvalidConfig)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("%w: batch.concurrency must be >= 1", ErrInvalidConfig)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("%w: logging.format must be 'json' or 'console', got %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Params converts the ranking configuration to pipeline parameters.
func (r RankingConfig) Params() ranking.Params {
	return ranking.Params{
		Window:           r.CandidateWindow,
		TopK:             r.TopK,
		SimilarityWeight: r.SimilarityWeight,
		RerankWeight:     r.RerankWeight,
		KeywordBoost:     r.KeywordBoost,
		PenaltyStep:      r.PenaltyStep,
		TitlePenalty:     r.TitlePenalty,
		PenaltyCap:       r.PenaltyCap,
		MinAdjustment:    r.MinAdjustment,
		MaxAdjustment:    r.MaxAdjustment,
	}
}

func rankingDefaults(p ranking.Params) RankingConfig {
	return RankingConfig{
		CandidateWindow:  p.Window,
		TopK:             p.TopK,
		SimilarityWeight: p.SimilarityWeight,
		RerankWeight:     p.RerankWeight,
		KeywordBoost:     p.KeywordBoost,
		PenaltyStep:      p.PenaltyStep,
		TitlePenalty:     p.TitlePenalty,
		PenaltyCap:       p.PenaltyCap,
		MinAdjustment:    p.MinAdjustment,
		MaxAdjustment:    p.MaxAdjustment,
	}
}

// Validate checks the ranking weights and bounds with the same rules the
// pipeline applies.
func (r RankingConfig) Validate() error {
	if err := r.Params().Validate(); err != nil {
		return fmt.Errorf("%w: ranking: %w", ErrInvalidConfig, err)
	}
	return nil
}
