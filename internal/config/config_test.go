package config

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/personarank/internal/ranking"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20, cfg.Ranking.CandidateWindow)
	assert.Equal(t, 5, cfg.Ranking.TopK)
	assert.InDelta(t, 0.3, cfg.Ranking.SimilarityWeight, 1e-9)
	assert.InDelta(t, 0.7, cfg.Ranking.RerankWeight, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Reranker.Timeout.Duration())
}

func TestRankingConfig_Params(t *testing.T) {
	assert.Equal(t, ranking.DefaultParams(), Default().Ranking.Params())

	cfg := Default()
	cfg.Ranking.TopK = ranking.MaxTopK + 1
	err := cfg.Ranking.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ranking.ErrInvalidParams)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown embeddings provider",
			mutate:  func(c *Config) { c.Embeddings.Provider = "openai" },
			wantErr: "unknown embeddings provider",
		},
		{
			name: "tei embeddings without url",
			mutate: func(c *Config) {
				c.Embeddings.Provider = "tei"
				c.Embeddings.BaseURL = ""
			},
			wantErr: "embeddings.base_url",
		},
		{
			name:    "unknown reranker provider",
			mutate:  func(c *Config) { c.Reranker.Provider = "colbert" },
			wantErr: "unknown reranker provider",
		},
		{
			name:    "top_k above ceiling",
			mutate:  func(c *Config) { c.Ranking.TopK = 6 },
			wantErr: "top_k",
		},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.Ranking.CandidateWindow = 0 },
			wantErr: "window must be >= 1",
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *Config) {
				c.Ranking.SimilarityWeight = 0.5
				c.Ranking.RerankWeight = 0.7
			},
			wantErr: "sum to 1",
		},
		{
			name: "alternate weighting is accepted",
			mutate: func(c *Config) {
				c.Ranking.SimilarityWeight = 0.4
				c.Ranking.RerankWeight = 0.6
			},
		},
		{
			name:    "positive lower bound",
			mutate:  func(c *Config) { c.Ranking.MinAdjustment = 0.1 },
			wantErr: "adjustment bounds",
		},
		{
			name:    "negative penalty",
			mutate:  func(c *Config) { c.Ranking.PenaltyStep = -0.1 },
			wantErr: "non-negative",
		},
		{
			name:    "no sentences",
			mutate:  func(c *Config) { c.Refine.MaxSentences = 0 },
			wantErr: "max_sentences",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Batch.Concurrency = 0 },
			wantErr: "batch.concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(b))

	assert.False(t, Secret("").IsSet())
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("45")))
	assert.Equal(t, 45*time.Second, d.Duration())
	assert.Equal(t, "45s", d.String())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("-2")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
