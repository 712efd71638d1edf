package ranking

import "github.com/fyrsmithlabs/personarank/internal/corpus"

// Retrieved is a section with its first-stage similarity to the query.
type Retrieved struct {
	corpus.Section
	Similarity float64
	// InWindow marks sections forwarded to the reranker.
	InWindow bool
}

// Reranked adds the pairwise score and the fused score.
type Reranked struct {
	Retrieved
	// RerankScore is valid only when HasRerank is true.
	RerankScore float64
	HasRerank   bool
	// Fused is the weighted blend for reranked sections and the plain
	// similarity for the rest.
	Fused float64
}

// Adjusted adds the bounded heuristic adjustment.
type Adjusted struct {
	Reranked
	Boost          float64
	Penalty        float64
	TitlePenalized bool
	// Adjustment is clamp(Boost - min(Penalty, cap), min, max).
	Adjustment      float64
	MatchedKeywords []string
	MatchedPenalty  []string
	Final           float64
}

// Ranked is a selected section with its 1-based importance rank.
type Ranked struct {
	Adjusted
	Rank int
}
