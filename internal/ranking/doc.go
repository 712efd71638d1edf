// Package ranking scores corpus sections against a query in four stages:
// dense retrieval, pairwise reranking, heuristic adjustment and selection.
//
// Each stage consumes the previous stage's records and returns new ones
// that embed them, so Ranked.Similarity, Ranked.Fused and Ranked.Final all
// stay readable on the final result. Retrieval and reranking report an
// Outcome; a degraded outcome means the stage fell back to a simpler
// signal for every section it touched, never for a subset.
package ranking
