package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/textnorm"
)

// DefaultTopKeywords is the number of key phrases extracted per text.
const DefaultTopKeywords = 10

type ImageryDetail struct {
	SourceKeywords    []string `json:"source_keywords"`
	CandidateKeywords []string `json:"candidate_keywords"`
	Missing           []string `json:"missing"`
}

// ImageryScorer reports source key phrases that do not survive into the candidate's
// own key phrases, a proxy for lost imagery or literary devices.
type ImageryScorer struct {
	extractor KeywordExtractor
	topN      int
}

func NewImageryScorer(extractor KeywordExtractor, topN int) *ImageryScorer {
	if topN <= 0 {
		topN = DefaultTopKeywords
	}
	return &ImageryScorer{extractor: extractor, topN: topN}
}

func (s *ImageryScorer) Kind() Kind { return KindImageryLoss }

func (s *ImageryScorer) Ready() error {
	if s.extractor == nil {
		return fmt.Errorf("no keyword extractor: %w", ErrScorerUnavailable)
	}
	return nil
}

func (s *ImageryScorer) Score(ctx context.Context, in models.SubmissionInput) (Result, error) {
	if err := s.Ready(); err != nil {
		return Result{}, err
	}
	premise, _ := premiseText(in)
	srcKW, err := s.extractor.Extract(ctx, premise, s.topN)
	if err != nil {
		return Result{}, fmt.Errorf("extract source keywords: %w", err)
	}
	candKW, err := s.extractor.Extract(ctx, in.CandidateText, s.topN)
	if err != nil {
		return Result{}, fmt.Errorf("extract candidate keywords: %w", err)
	}

	present := make(map[string]bool, len(candKW))
	detail := ImageryDetail{
		SourceKeywords:    phrases(srcKW),
		CandidateKeywords: phrases(candKW),
		Missing:           []string{},
	}
	for _, kw := range candKW {
		present[textnorm.Fold(kw.Phrase)] = true
	}
	for _, kw := range srcKW {
		if !present[textnorm.Fold(kw.Phrase)] {
			detail.Missing = append(detail.Missing, kw.Phrase)
		}
	}

	res := Result{
		Kind:      KindImageryLoss,
		Value:     float64(len(detail.Missing)),
		Available: true,
		Detail:    detail,
	}
	if len(detail.Missing) > 0 {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnLiteraryLoss,
			Message: fmt.Sprintf("Potential literary loss: %s", strings.Join(detail.Missing, ", ")),
		})
	}
	return res, nil
}

func phrases(kws []Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Phrase
	}
	return out
}
