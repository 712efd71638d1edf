package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantError bool
		wantDim   int
	}{
		{
			name: "tei provider with valid config",
			cfg: ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080",
				Model:    "sentence-transformers/all-MiniLM-L6-v2",
			},
			wantDim: 384,
		},
		{
			name: "tei provider with base model",
			cfg: ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080",
				Model:    "BAAI/bge-base-en-v1.5",
			},
			wantDim: 768,
		},
		{
			name: "tei provider without base URL",
			cfg: ProviderConfig{
				Provider: "tei",
				Model:    "BAAI/bge-small-en-v1.5",
			},
			wantError: true,
		},
		{
			name:    "none provider",
			cfg:     ProviderConfig{Provider: "none"},
			wantDim: 0,
		},
		{
			name:      "unknown provider",
			cfg:       ProviderConfig{Provider: "unknown"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.cfg)
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, provider)
			defer provider.Close()
			assert.Equal(t, tt.wantDim, provider.Dimension())
		})
	}
}

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Provider: "none"})
	require.NoError(t, err)

	_, err = p.EmbedDocuments(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = p.EmbedQuery(context.Background(), "a")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, "none", p.ModelName())
}

func TestDetectDimension(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"sentence-transformers/all-MiniLM-L6-v2", 384},
		{"BAAI/bge-small-zh-v1.5", 512},
		{"intfloat/e5-large-v2", 1024},
		{"sentence-transformers/all-mpnet-base-v2", 768},
		{"something-unknown", 384},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDimension(tt.model))
		})
	}
}
