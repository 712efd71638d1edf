package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/config"
	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/reranker"
)

// Models holds the loaded embedding and reranking models.
type Models struct {
	Embedder embeddings.Provider
	Reranker reranker.Reranker
}

// LoadModels creates the providers named in cfg. It runs once per process;
// the returned models are shared by every request.
func LoadModels(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Models, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	emb, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		APIKey:   cfg.Embeddings.APIKey.Value(),
		CacheDir: cfg.Embeddings.CacheDir,
		Timeout:  cfg.Embeddings.Timeout.Duration(),
		Logger:   logger.Underlying().Named("embeddings"),
	})
	if err != nil {
		return nil, fmt.Errorf("loading embedding model: %w", err)
	}

	rr, err := reranker.New(reranker.Config{
		Provider: cfg.Reranker.Provider,
		Model:    cfg.Reranker.Model,
		BaseURL:  cfg.Reranker.BaseURL,
		APIKey:   cfg.Reranker.APIKey.Value(),
		Timeout:  cfg.Reranker.Timeout.Duration(),
		Logger:   logger.Underlying().Named("reranker"),
	})
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("loading reranker: %w", err)
	}

	logger.Info(ctx, "models loaded",
		zap.String("embedder", emb.ModelName()),
		zap.Int("dimension", emb.Dimension()),
		zap.String("reranker", rr.ModelName()),
	)
	return &Models{Embedder: emb, Reranker: rr}, nil
}

// Close releases both models.
func (m *Models) Close() error {
	var errs []error
	if m.Embedder != nil {
		errs = append(errs, m.Embedder.Close())
	}
	if m.Reranker != nil {
		errs = append(errs, m.Reranker.Close())
	}
	return errors.Join(errs...)
}

// serialize wraps non-nil models so that every inference call holds one
// shared mutex.
func serialize(emb embeddings.Embedder, rr reranker.Reranker) (embeddings.Embedder, reranker.Reranker) {
	mu := &sync.Mutex{}
	if emb != nil {
		emb = &lockedEmbedder{mu: mu, next: emb}
	}
	if rr != nil {
		rr = &lockedReranker{mu: mu, Reranker: rr}
	}
	return emb, rr
}

type lockedEmbedder struct {
	mu   *sync.Mutex
	next embeddings.Embedder
}

func (l *lockedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.EmbedDocuments(ctx, texts)
}

func (l *lockedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.EmbedQuery(ctx, text)
}

type lockedReranker struct {
	mu *sync.Mutex
	reranker.Reranker
}

func (l *lockedReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Reranker.Score(ctx, query, texts)
}
