package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/query"
)

// RetrievalResult holds every section's similarity, in corpus order.
type RetrievalResult struct {
	Sections []Retrieved
	// Window indexes Sections, highest similarity first.
	Window  []int
	Outcome Outcome
}

// Retrieve scores all sections by cosine similarity of their embeddings to
// the query embedding and marks the top window candidates. If the embedder
// is missing or returns anything unusable, every section is scored by
// term-set Jaccard similarity instead and the outcome is degraded.
func Retrieve(ctx context.Context, emb embeddings.Embedder, q query.Query, sections []corpus.Section, window int) RetrievalResult {
	out := RetrievalResult{
		Sections: make([]Retrieved, len(sections)),
		Window:   []int{},
		Outcome:  okOutcome(StageRetrieve),
	}
	if len(sections) == 0 {
		return out
	}

	sims, err := denseSimilarities(ctx, emb, q.Text, corpus.FullTexts(sections))
	if err != nil {
		sims = lexicalSimilarities(q.Text, sections)
		out.Outcome = degradedOutcome(StageRetrieve, err.Error())
	}

	for i, s := range sections {
		out.Sections[i] = Retrieved{Section: s, Similarity: sims[i]}
	}

	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	out.Window = order[:min(window, len(order))]
	for _, idx := range out.Window {
		out.Sections[idx].InWindow = true
	}
	return out
}

func denseSimilarities(ctx context.Context, emb embeddings.Embedder, queryText string, texts []string) ([]float64, error) {
	if emb == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	docVecs, err := emb.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding sections: %w", err)
	}
	if len(docVecs) != len(texts) {
		return nil, fmt.Errorf("embedding sections: got %d vectors for %d sections", len(docVecs), len(texts))
	}
	queryVec, err := emb.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("embedding query: empty vector")
	}

	for i, v := range docVecs {
		if len(v) != len(queryVec) {
			return nil, fmt.Errorf("section %d: dimension %d does not match query dimension %d", i, len(v), len(queryVec))
		}
	}
	return vectorSimilarities(ctx, queryVec, docVecs)
}

// errPrecomputed is returned if the section index is ever asked to embed
// text itself; every document is added with its vector.
var errPrecomputed = errors.New("section index only accepts precomputed embeddings")

// vectorSimilarities returns the cosine similarity of every vector to the
// query, in input order. Vectors are indexed in a per-request in-memory
// chromem collection queried for all of its documents. Zero vectors score 0.
func vectorSimilarities(ctx context.Context, queryVec []float32, docVecs [][]float32) ([]float64, error) {
	sims := make([]float64, len(docVecs))
	if isZero(queryVec) {
		return sims, nil
	}

	docs := make([]chromem.Document, 0, len(docVecs))
	for i, v := range docVecs {
		if isZero(v) {
			continue
		}
		docs = append(docs, chromem.Document{ID: strconv.Itoa(i), Embedding: v})
	}
	if len(docs) == 0 {
		return sims, nil
	}

	coll, err := chromem.NewDB().CreateCollection("sections", nil,
		func(context.Context, string) ([]float32, error) { return nil, errPrecomputed })
	if err != nil {
		return nil, fmt.Errorf("creating section index: %w", err)
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("indexing sections: %w", err)
	}

	results, err := coll.QueryEmbedding(ctx, queryVec, coll.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying section index: %w", err)
	}
	for _, r := range results {
		i, err := strconv.Atoi(r.ID)
		if err != nil || i < 0 || i >= len(sims) {
			return nil, fmt.Errorf("section index returned unknown id %q", r.ID)
		}
		sim := float64(r.Similarity)
		if math.IsNaN(sim) || math.IsInf(sim, 0) {
			return nil, fmt.Errorf("section %d: non-finite similarity", i)
		}
		sims[i] = sim
	}
	return sims, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func lexicalSimilarities(queryText string, sections []corpus.Section) []float64 {
	qTerms := query.Terms(queryText)
	sims := make([]float64, len(sections))
	for i, s := range sections {
		sims[i] = query.JaccardSets(qTerms, query.Terms(s.FullText()))
	}
	return sims
}
