package reranker

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantModel string
		wantErr   bool
	}{
		{name: "tei", cfg: Config{Provider: "tei", BaseURL: "http://localhost:8081", Model: "cross-encoder/ms-marco-MiniLM-L6-v2"}, wantModel: "cross-encoder/ms-marco-MiniLM-L6-v2"},
		{name: "tei without url", cfg: Config{Provider: "tei"}, wantErr: true},
		{name: "overlap", cfg: Config{Provider: "overlap"}, wantModel: "overlap"},
		{name: "none", cfg: Config{Provider: "none"}, wantModel: "none"},
		{name: "unknown", cfg: Config{Provider: "bm25"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, tt.wantModel, r.ModelName())
		})
	}
}

func TestDisabled(t *testing.T) {
	r, err := New(Config{Provider: "none"})
	require.NoError(t, err)
	_, err = r.Score(context.Background(), "q", []string{"a"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func rerankServer(t *testing.T, respond func(req rerankRequest) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(respond(req))
	}))
}

func TestTEIReranker_Score(t *testing.T) {
	// TEI returns results sorted by score, not by input index.
	srv := rerankServer(t, func(req rerankRequest) any {
		assert.Equal(t, "beach trip", req.Query)
		assert.True(t, req.Truncate)
		return []rerankResult{{Index: 2, Score: 0.9}, {Index: 0, Score: 0.5}, {Index: 1, Score: 0.1}}
	})
	defer srv.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: srv.URL + "/", Model: "ce"})
	require.NoError(t, err)

	scores, err := r.Score(context.Background(), "beach trip", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.1, 0.9}, scores)
}

func TestTEIReranker_EmptyTexts(t *testing.T) {
	r, err := NewTEIReranker(TEIConfig{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	scores, err := r.Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestTEIReranker_BadResponses(t *testing.T) {
	tests := []struct {
		name    string
		results []rerankResult
	}{
		{name: "too few scores", results: []rerankResult{{Index: 0, Score: 0.2}}},
		{name: "index out of range", results: []rerankResult{{Index: 0, Score: 0.2}, {Index: 5, Score: 0.1}}},
		{name: "duplicate index", results: []rerankResult{{Index: 0, Score: 0.2}, {Index: 0, Score: 0.1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rerankServer(t, func(rerankRequest) any { return tt.results })
			defer srv.Close()

			r, err := NewTEIReranker(TEIConfig{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = r.Score(context.Background(), "q", []string{"a", "b"})
			assert.ErrorIs(t, err, ErrRerankFailed)
		})
	}
}

func TestTEIReranker_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = r.Score(context.Background(), "q", []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRerankFailed)
	assert.Contains(t, err.Error(), "500")
}

func TestAlignScores_NonFinite(t *testing.T) {
	_, err := alignScores([]rerankResult{{Index: 0, Score: 0}}, 1)
	require.NoError(t, err)

	// NaN cannot be encoded as JSON, so exercise the check directly.
	_, err = alignScores([]rerankResult{{Index: 0, Score: math.NaN()}}, 1)
	assert.ErrorIs(t, err, ErrRerankFailed)
}

func TestOverlapReranker_Score(t *testing.T) {
	r := NewOverlapReranker()

	scores, err := r.Score(context.Background(), "beach nightlife in Nice", []string{
		"The beach at Nice comes alive with nightlife after dark.",
		"Nightlife guide",
		"Medieval history of the old town",
	})
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.InDelta(t, 1.0/3.0, scores[1], 1e-9)
	assert.InDelta(t, 0.0, scores[2], 1e-9)
}

func TestOverlapReranker_StopwordQuery(t *testing.T) {
	scores, err := NewOverlapReranker().Score(context.Background(), "the and of", []string{"the and of"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, scores)
}

func TestOverlapReranker_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOverlapReranker().Score(ctx, "q", []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
