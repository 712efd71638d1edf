package ranking

import (
	"errors"
	"fmt"
	"math"
)

// MaxTopK is the most sections a result may carry.
const MaxTopK = 5

// ErrInvalidParams wraps parameter validation failures.
var ErrInvalidParams = errors.New("invalid ranking parameters")

// Params is the numeric contract of the pipeline.
type Params struct {
	// Window is how many top retrieval candidates are reranked.
	Window int
	TopK   int

	SimilarityWeight float64
	RerankWeight     float64

	KeywordBoost float64
	PenaltyStep  float64
	TitlePenalty float64
	PenaltyCap   float64

	MinAdjustment float64
	MaxAdjustment float64
}

// DefaultParams returns the reference weights.
func DefaultParams() Params {
	return Params{
		Window:           20,
		TopK:             MaxTopK,
		SimilarityWeight: 0.3,
		RerankWeight:     0.7,
		KeywordBoost:     0.08,
		PenaltyStep:      0.12,
		TitlePenalty:     0.3,
		PenaltyCap:       0.7,
		MinAdjustment:    -0.5,
		MaxAdjustment:    0.9,
	}
}

// Validate checks window, weights and bounds.
func (p Params) Validate() error {
	if p.Window < 1 {
		return fmt.Errorf("%w: window must be >= 1, got %d", ErrInvalidParams, p.Window)
	}
	if p.TopK < 1 || p.TopK > MaxTopK {
		return fmt.Errorf("%w: top_k must be in [1,%d], got %d", ErrInvalidParams, MaxTopK, p.TopK)
	}
	if p.SimilarityWeight < 0 || p.RerankWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrInvalidParams)
	}
	if math.Abs(p.SimilarityWeight+p.RerankWeight-1) > 1e-6 {
		return fmt.Errorf("%w: fusion weights must sum to 1, got %.3f", ErrInvalidParams, p.SimilarityWeight+p.RerankWeight)
	}
	if p.KeywordBoost < 0 || p.PenaltyStep < 0 || p.TitlePenalty < 0 || p.PenaltyCap < 0 {
		return fmt.Errorf("%w: boosts and penalties must be non-negative", ErrInvalidParams)
	}
	if p.MinAdjustment > 0 || p.MaxAdjustment < 0 {
		return fmt.Errorf("%w: adjustment bounds must satisfy min <= 0 <= max, got [%g,%g]", ErrInvalidParams, p.MinAdjustment, p.MaxAdjustment)
	}
	return nil
}
