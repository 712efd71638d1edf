package reranker

import (
	"context"

	"github.com/fyrsmithlabs/personarank/internal/query"
)

// OverlapReranker scores a text by the share of distinct query terms it
// contains. It needs no model and suits offline runs and tests.
type OverlapReranker struct{}

// NewOverlapReranker creates a new OverlapReranker instance.
func NewOverlapReranker() *OverlapReranker {
	return &OverlapReranker{}
}

// Score returns the term overlap of each text with the query, in [0,1].
func (r *OverlapReranker) Score(ctx context.Context, q string, texts []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	queryTerms := query.Terms(q)
	scores := make([]float64, len(texts))
	if len(queryTerms) == 0 {
		return scores, nil
	}
	for i, text := range texts {
		scores[i] = termOverlap(queryTerms, query.Terms(text))
	}
	return scores, nil
}

// termOverlap returns the fraction of query terms present in the document.
func termOverlap(queryTerms, docTerms map[string]struct{}) float64 {
	matches := 0
	for term := range queryTerms {
		if _, ok := docTerms[term]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(queryTerms))
}

// ModelName identifies the lexical scorer.
func (r *OverlapReranker) ModelName() string { return "overlap" }

// Close closes the reranker. OverlapReranker has no resources to clean up.
func (r *OverlapReranker) Close() error { return nil }
