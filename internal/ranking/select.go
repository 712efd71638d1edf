package ranking

import "sort"

// Select orders sections by final score, highest first, keeping corpus
// order among equal scores, and returns the first topK with ranks 1..K.
func Select(in []Adjusted, topK int) []Ranked {
	sorted := make([]Adjusted, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Final > sorted[j].Final
	})

	n := min(max(topK, 0), len(sorted))
	out := make([]Ranked, n)
	for i := 0; i < n; i++ {
		out[i] = Ranked{Adjusted: sorted[i], Rank: i + 1}
	}
	return out
}
