package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/translation-arena/backend/internal/models"
)

type ContradictionDetail struct {
	Label      NLILabel    `json:"label"`
	Confidence float64     `json:"confidence"`
	PhraseHits []PhraseHit `json:"phrase_hits,omitempty"`
}

// ContradictionScorer runs NLI over (source, candidate) and, independently of the
// model's verdict, looks up known contradictory phrase pairs for precise highlighting.
type ContradictionScorer struct {
	backend ClassificationBackend
	lexicon *Lexicon
}

func NewContradictionScorer(backend ClassificationBackend, lexicon *Lexicon) *ContradictionScorer {
	return &ContradictionScorer{backend: backend, lexicon: lexicon}
}

func (s *ContradictionScorer) Kind() Kind { return KindContradiction }

func (s *ContradictionScorer) Ready() error {
	if s.backend == nil {
		return fmt.Errorf("no classification backend: %w", ErrScorerUnavailable)
	}
	return nil
}

func (s *ContradictionScorer) Score(ctx context.Context, in models.SubmissionInput) (Result, error) {
	if err := s.Ready(); err != nil {
		return Result{}, err
	}
	premise, _ := premiseText(in)
	cls, err := s.backend.Classify(ctx, premise, in.CandidateText)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}

	detail := ContradictionDetail{
		Label:      cls.Label,
		Confidence: round(cls.Confidence, 3),
		PhraseHits: s.lexicon.Lookup(premise, in.CandidateText),
	}
	res := Result{Kind: KindContradiction, Value: detail.Confidence, Available: true, Detail: detail}

	switch {
	case cls.Label == LabelContradiction:
		res.Warnings = append(res.Warnings, Warning{Kind: WarnContradiction, Message: "Translation contradicts source"})
	case len(detail.PhraseHits) > 0:
		phrases := make([]string, len(detail.PhraseHits))
		for i, h := range detail.PhraseHits {
			phrases[i] = h.Phrase
		}
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnContradiction,
			Message: fmt.Sprintf("Contradictory phrases: %s", strings.Join(phrases, ", ")),
		})
	}
	return res, nil
}
