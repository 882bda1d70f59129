package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/scoring"
)

func newSidecarServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/similarity", func(w http.ResponseWriter, r *http.Request) {
		var req similarityRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sim := 0.2
		if req.A == req.B {
			sim = 1
		}
		_ = json.NewEncoder(w).Encode(similarityResponse{Similarity: sim})
	})
	mux.HandleFunc("/nli", func(w http.ResponseWriter, r *http.Request) {
		var req nliRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		label, confidence := "entailment", 0.75
		switch req.Hypothesis {
		case "bad":
			label = "sarcasm"
		case "xnli":
			// XNLI heads report upper-case labels and raw scores.
			label, confidence = " CONTRADICTION", 1.2
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"label": label, "confidence": confidence})
	})
	mux.HandleFunc("/keywords", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"keywords":[{"phrase":"light wings","weight":0.9},{"phrase":"walls","weight":0.4},{"phrase":"love","weight":0.1}]}`))
	})
	mux.HandleFunc("/fluency", func(w http.ResponseWriter, r *http.Request) {
		var req fluencyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Language != "ar" {
			http.Error(w, "no model for language", http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(fluencyResponse{Score: 0.66})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSidecar(t *testing.T) {
	ctx := context.Background()
	s := NewSidecar(newSidecarServer(t).URL+"/", time.Second)

	sim, err := s.Similarity(ctx, "x", "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sim)

	cls, err := s.Classify(ctx, "premise", "good")
	require.NoError(t, err)
	assert.Equal(t, scoring.Classification{Label: scoring.LabelEntailment, Confidence: 0.75}, cls)

	_, err = s.Classify(ctx, "premise", "bad")
	assert.ErrorContains(t, err, "unknown label")

	cls, err = s.Classify(ctx, "premise", "xnli")
	require.NoError(t, err)
	assert.Equal(t, scoring.Classification{Label: scoring.LabelContradiction, Confidence: 1}, cls)

	kws, err := s.Extract(ctx, "text", 2)
	require.NoError(t, err)
	assert.Equal(t, []scoring.Keyword{{Phrase: "light wings", Weight: 0.9}, {Phrase: "walls", Weight: 0.4}}, kws)

	score, err := s.Score(ctx, "أنا سعيد", "ar")
	require.NoError(t, err)
	assert.Equal(t, 0.66, score)

	_, err = s.Score(ctx, "hello", "en")
	assert.ErrorContains(t, err, "422")
}

func TestSidecar_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewSidecar(url, 100*time.Millisecond).Similarity(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [1, 1, 0]},
				{"object": "embedding", "index": 0, "embedding": [1, 0, 0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", "", srv.URL+"/v1", 0)
	sim, err := e.Similarity(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.InDelta(t, 0.7071, sim, 1e-4)
}

func TestCosine(t *testing.T) {
	got, err := Cosine([]float32{1, 2, 3}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-9)

	got, err = Cosine([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1, got, 1e-9)

	got, err = Cosine([]float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = Cosine([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrVectorMismatch)
}
