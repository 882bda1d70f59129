package scoring

import (
	"context"
	"fmt"

	"github.com/translation-arena/backend/internal/models"
)

type FluencyDetail struct {
	Language Language `json:"language"`
	Score    float64  `json:"score"`
}

// FluencyScorer estimates how natural the candidate reads in its detected language.
type FluencyScorer struct {
	detector LanguageDetector
	backend  FluencyBackend
}

func NewFluencyScorer(detector LanguageDetector, backend FluencyBackend) *FluencyScorer {
	return &FluencyScorer{detector: detector, backend: backend}
}

func (s *FluencyScorer) Kind() Kind { return KindFluency }

func (s *FluencyScorer) Ready() error {
	if s.detector == nil {
		return fmt.Errorf("no language detector: %w", ErrScorerUnavailable)
	}
	if s.backend == nil {
		return fmt.Errorf("no fluency backend: %w", ErrScorerUnavailable)
	}
	return nil
}

func (s *FluencyScorer) Score(ctx context.Context, in models.SubmissionInput) (Result, error) {
	if err := s.Ready(); err != nil {
		return Result{}, err
	}
	lang := s.detector.Detect(in.CandidateText)
	if lang == LanguageUnknown {
		return Result{}, fmt.Errorf("candidate language unknown: %w", ErrScorerUnavailable)
	}
	score, err := s.backend.Score(ctx, in.CandidateText, lang)
	if err != nil {
		return Result{}, fmt.Errorf("fluency %s: %w", lang, err)
	}
	score = round(score, 3)
	return Result{
		Kind:      KindFluency,
		Value:     score,
		Available: true,
		Detail:    FluencyDetail{Language: lang, Score: score},
	}, nil
}
