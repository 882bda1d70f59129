package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/translation-arena/backend/internal/models"
)

type NgramDetail struct {
	Metrics map[string]float64 `json:"metrics"`
	Failed  map[string]string  `json:"failed,omitempty"`
}

// NgramScorer runs every configured reference-based metric. Value is the first
// metric that succeeded, in configuration order.
type NgramScorer struct {
	metrics []NgramMetric
}

func NewNgramScorer(metrics ...NgramMetric) *NgramScorer {
	return &NgramScorer{metrics: metrics}
}

func (s *NgramScorer) Kind() Kind { return KindNgramOverlap }

func (s *NgramScorer) Ready() error {
	if len(s.metrics) == 0 {
		return fmt.Errorf("no n-gram metrics configured: %w", ErrScorerUnavailable)
	}
	return nil
}

func (s *NgramScorer) Score(_ context.Context, in models.SubmissionInput) (Result, error) {
	if err := s.Ready(); err != nil {
		return Result{}, err
	}
	if !in.HasReference() {
		return Result{}, ErrMissingReference
	}

	detail := NgramDetail{Metrics: make(map[string]float64, len(s.metrics))}
	var value float64
	scored := false
	for _, m := range s.metrics {
		v, err := m.Score(in.CandidateText, in.ReferenceText)
		if err != nil {
			if detail.Failed == nil {
				detail.Failed = make(map[string]string)
			}
			detail.Failed[m.Name()] = err.Error()
			continue
		}
		v = round(v, 2)
		detail.Metrics[m.Name()] = v
		if !scored {
			value = v
			scored = true
		}
	}
	if !scored {
		names := make([]string, 0, len(detail.Failed))
		for n := range detail.Failed {
			names = append(names, n)
		}
		sort.Strings(names)
		return Result{}, fmt.Errorf("all n-gram metrics failed (%s): %w", strings.Join(names, ", "), ErrScorerUnavailable)
	}

	return Result{Kind: KindNgramOverlap, Value: value, Available: true, Detail: detail}, nil
}
