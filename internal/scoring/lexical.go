package scoring

import (
	"context"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/translation-arena/backend/internal/models"
)

type LexicalDetail struct {
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
	Against    string  `json:"against"`
}

// LexicalScorer measures character edit distance between the candidate and the
// reference (or the source when no reference exists). It has no backend and is
// always available.
type LexicalScorer struct{}

func (LexicalScorer) Kind() Kind   { return KindLexicalEdit }
func (LexicalScorer) Ready() error { return nil }

func (LexicalScorer) Score(_ context.Context, in models.SubmissionInput) (Result, error) {
	target, against := comparisonText(in)
	dist, sim := EditSimilarity(in.CandidateText, target)
	return Result{
		Kind:      KindLexicalEdit,
		Value:     sim,
		Available: true,
		Detail:    LexicalDetail{Distance: dist, Similarity: sim, Against: against},
	}, nil
}

// EditSimilarity returns the rune-level Levenshtein distance and the similarity
// percentage (1 - distance/max(len)) * 100, rounded to two places. Two empty
// strings are 100% similar.
func EditSimilarity(a, b string) (int, float64) {
	dist := levenshtein.ComputeDistance(a, b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0, 100
	}
	return dist, round((1-float64(dist)/float64(longest))*100, 2)
}
