package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrDisabled is returned by the "none" provider.
	ErrDisabled = errors.New("embeddings disabled")
)

// Embedder turns text into vectors.
type Embedder interface {
	// EmbedDocuments embeds texts in one batch, returning one vector per text
	// in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is an Embedder that owns model resources.
type Provider interface {
	Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// ModelName identifies the model in logs and metrics.
	ModelName() string
	// Close releases resources held by the provider.
	Close() error
}
