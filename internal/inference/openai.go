package inference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/translation-arena/backend/internal/scoring"
)

// OpenAIEmbedder computes cross-lingual similarity from OpenAI embeddings.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
}

var _ scoring.EmbeddingBackend = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds an embedder. An empty baseURL uses the public API.
func NewOpenAIEmbedder(apiKey, model, baseURL string, rps float64) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(cfg),
		model:   openai.EmbeddingModel(model),
		limiter: limiterFor(rps),
	}
}

func (e *OpenAIEmbedder) Similarity(ctx context.Context, a, b string) (float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{a, b},
		Model: e.model,
	})
	if err != nil {
		return 0, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != 2 {
		return 0, fmt.Errorf("openai embeddings: expected 2 vectors, got %d", len(resp.Data))
	}
	vecs := make([][]float32, 2)
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index > 1 {
			return 0, fmt.Errorf("openai embeddings: unexpected index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return Cosine(vecs[0], vecs[1])
}

var ErrVectorMismatch = errors.New("vector dimensions differ")

// Cosine returns the cosine similarity of two vectors. A zero vector has
// similarity 0 with anything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrVectorMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
