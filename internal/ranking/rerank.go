package ranking

import (
	"context"
	"fmt"
	"math"

	"github.com/fyrsmithlabs/personarank/internal/query"
	"github.com/fyrsmithlabs/personarank/internal/reranker"
)

// RerankResult holds every section's fused score, in corpus order.
type RerankResult struct {
	Sections []Reranked
	Outcome  Outcome
}

// Rerank scores the window candidates pairwise against the query in one
// batch and blends each with its similarity. Sections outside the window
// carry their similarity through. On any scorer failure the whole window
// keeps its similarity and the outcome is degraded.
func Rerank(ctx context.Context, rr reranker.Reranker, q query.Query, in RetrievalResult, simWeight, rerankWeight float64) RerankResult {
	out := RerankResult{
		Sections: make([]Reranked, len(in.Sections)),
		Outcome:  okOutcome(StageRerank),
	}
	for i, r := range in.Sections {
		out.Sections[i] = Reranked{Retrieved: r, Fused: r.Similarity}
	}
	if len(in.Window) == 0 {
		return out
	}

	scores, err := pairScores(ctx, rr, q.Text, in)
	if err != nil {
		out.Outcome = degradedOutcome(StageRerank, err.Error())
		return out
	}

	for k, idx := range in.Window {
		s := &out.Sections[idx]
		s.RerankScore = scores[k]
		s.HasRerank = true
		s.Fused = simWeight*s.Similarity + rerankWeight*scores[k]
	}
	return out
}

func pairScores(ctx context.Context, rr reranker.Reranker, queryText string, in RetrievalResult) ([]float64, error) {
	if rr == nil {
		return nil, fmt.Errorf("no reranker configured")
	}
	texts := make([]string, len(in.Window))
	for k, idx := range in.Window {
		texts[k] = in.Sections[idx].FullText()
	}
	scores, err := rr.Score(ctx, queryText, texts)
	if err != nil {
		return nil, fmt.Errorf("scoring pairs: %w", err)
	}
	if len(scores) != len(texts) {
		return nil, fmt.Errorf("scoring pairs: got %d scores for %d candidates", len(scores), len(texts))
	}
	for k, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("scoring pairs: non-finite score for candidate %d", k)
		}
	}
	return scores, nil
}
