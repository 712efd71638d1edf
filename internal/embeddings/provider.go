package embeddings

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type: "fastembed", "tei" or "none".
	Provider string
	// Model is the embedding model name
	Model string
	// BaseURL is the TEI URL (only used for TEI provider)
	BaseURL string
	// APIKey is the TEI bearer token (only used for TEI provider)
	APIKey string
	// CacheDir is the model cache directory (only used for FastEmbed)
	CacheDir string
	// Timeout bounds TEI requests.
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
			Logger:   cfg.Logger,
		})
	case "tei":
		svc, err := NewService(Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
			Logger:  cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return &teiProvider{Service: svc, dimension: DetectDimension(cfg.Model)}, nil
	case "none":
		return disabled{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// teiProvider wraps Service to implement Provider interface.
type teiProvider struct {
	*Service
	dimension int
}

// Dimension returns the embedding dimension based on the configured model.
func (t *teiProvider) Dimension() int {
	return t.dimension
}

// ModelName returns the model served by TEI.
func (t *teiProvider) ModelName() string {
	return t.config.Model
}

// Close is a no-op for TEI since it uses HTTP.
func (t *teiProvider) Close() error {
	return nil
}

// disabled fails every call, which sends retrieval to its lexical fallback.
type disabled struct{}

func (disabled) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, ErrDisabled
}

func (disabled) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, ErrDisabled
}

func (disabled) Dimension() int    { return 0 }
func (disabled) ModelName() string { return "none" }
func (disabled) Close() error      { return nil }
