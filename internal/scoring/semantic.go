package scoring

import (
	"context"
	"fmt"

	"github.com/translation-arena/backend/internal/models"
)

// DefaultSimilarityThreshold is the cosine similarity below which a
// LowSimilarity warning is raised.
const DefaultSimilarityThreshold = 0.70

type SemanticDetail struct {
	Similarity float64 `json:"similarity"`
	Against    string  `json:"against"`
}

// SemanticScorer compares cross-lingual embeddings of the source and the candidate.
type SemanticScorer struct {
	backend   EmbeddingBackend
	threshold float64
}

func NewSemanticScorer(backend EmbeddingBackend, threshold float64) *SemanticScorer {
	return &SemanticScorer{backend: backend, threshold: threshold}
}

func (s *SemanticScorer) Kind() Kind { return KindSemantic }

func (s *SemanticScorer) Ready() error {
	if s.backend == nil {
		return fmt.Errorf("no embedding backend: %w", ErrScorerUnavailable)
	}
	return nil
}

func (s *SemanticScorer) Score(ctx context.Context, in models.SubmissionInput) (Result, error) {
	if err := s.Ready(); err != nil {
		return Result{}, err
	}
	premise, against := premiseText(in)
	sim, err := s.backend.Similarity(ctx, premise, in.CandidateText)
	if err != nil {
		return Result{}, fmt.Errorf("embedding similarity: %w", err)
	}
	sim = round(sim, 3)

	res := Result{
		Kind:      KindSemantic,
		Value:     sim,
		Available: true,
		Detail:    SemanticDetail{Similarity: sim, Against: against},
	}
	if sim < s.threshold {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnLowSimilarity,
			Message: fmt.Sprintf("Low semantic similarity (%.3f < %.2f)", sim, s.threshold),
		})
	}
	return res, nil
}
