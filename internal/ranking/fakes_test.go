package ranking

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
)

// vocabEmbedder embeds text as a presence vector over a fixed vocabulary.
type vocabEmbedder struct {
	vocab    []string
	docErr   error
	queryErr error
	// dropOne returns one vector fewer than requested.
	dropOne bool
	// queryDim overrides the query vector length when non-zero.
	queryDim int
}

func (e *vocabEmbedder) vec(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		if strings.Contains(lower, w) {
			v[i] = 1
		}
	}
	return v
}

func (e *vocabEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.docErr != nil {
		return nil, e.docErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, e.vec(t))
	}
	if e.dropOne {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *vocabEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	if e.queryDim > 0 {
		return make([]float32, e.queryDim), nil
	}
	return e.vec(text), nil
}

// funcReranker delegates scoring to fn.
type funcReranker struct {
	fn    func(texts []string) ([]float64, error)
	calls int
}

func (r *funcReranker) Score(_ context.Context, _ string, texts []string) ([]float64, error) {
	r.calls++
	return r.fn(texts)
}

func (r *funcReranker) ModelName() string { return "fake" }
func (r *funcReranker) Close() error      { return nil }

// scoreByContains gives each text the score of the first matching needle.
func scoreByContains(scores map[string]float64) func([]string) ([]float64, error) {
	return func(texts []string) ([]float64, error) {
		out := make([]float64, len(texts))
		for i, t := range texts {
			for needle, s := range scores {
				if strings.Contains(t, needle) {
					out[i] = s
				}
			}
		}
		return out, nil
	}
}

func beachSections() []corpus.Section {
	return corpus.Build([]corpus.Document{{
		Name: "guide.pdf",
		Sections: []corpus.RawSection{
			{Title: "Beach day", Content: "sand and sea", PageNumber: 1},
			{Title: "Museum", Content: "old paintings", PageNumber: 2},
			{Title: "Beach bars", Content: "drinks by the sea", PageNumber: 3},
		},
	}})
}
