package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/textnorm"
)

const (
	DefaultLengthTolerance      = 3.0
	DefaultPunctuationTolerance = 2
)

type StylisticDetail struct {
	SourceAvgSentenceLength    float64 `json:"source_avg_sentence_length"`
	CandidateAvgSentenceLength float64 `json:"candidate_avg_sentence_length"`
	SourcePunctuation          int     `json:"source_punctuation"`
	CandidatePunctuation       int     `json:"candidate_punctuation"`
	LengthDelta                float64 `json:"length_delta"`
	PunctuationDelta           int     `json:"punctuation_delta"`
}

// StylisticScorer compares sentence rhythm and punctuation between source and
// candidate. It needs no backend.
type StylisticScorer struct {
	lengthTolerance      float64
	punctuationTolerance int
}

func NewStylisticScorer(lengthTolerance float64, punctuationTolerance int) *StylisticScorer {
	return &StylisticScorer{lengthTolerance: lengthTolerance, punctuationTolerance: punctuationTolerance}
}

func (s *StylisticScorer) Kind() Kind   { return KindStylisticMismatch }
func (s *StylisticScorer) Ready() error { return nil }

func (s *StylisticScorer) Score(_ context.Context, in models.SubmissionInput) (Result, error) {
	premise, _ := premiseText(in)
	srcLen, srcPunct := StyleProfile(premise)
	candLen, candPunct := StyleProfile(in.CandidateText)

	detail := StylisticDetail{
		SourceAvgSentenceLength:    round(srcLen, 2),
		CandidateAvgSentenceLength: round(candLen, 2),
		SourcePunctuation:          srcPunct,
		CandidatePunctuation:       candPunct,
		LengthDelta:                round(math.Abs(srcLen-candLen), 2),
		PunctuationDelta:           abs(srcPunct - candPunct),
	}
	res := Result{
		Kind:      KindStylisticMismatch,
		Value:     detail.LengthDelta,
		Available: true,
		Detail:    detail,
	}
	if detail.LengthDelta > s.lengthTolerance || detail.PunctuationDelta > s.punctuationTolerance {
		res.Warnings = append(res.Warnings, Warning{
			Kind: WarnStylisticMismatch,
			Message: fmt.Sprintf("Stylistic mismatch (sentence length Δ%.1f, punctuation Δ%d)",
				detail.LengthDelta, detail.PunctuationDelta),
		})
	}
	return res, nil
}

// stylePunct is the punctuation counted for density, with Arabic equivalents.
const stylePunct = "!?,;:،؛؟"

// StyleProfile returns the average words per sentence and the punctuation count.
func StyleProfile(text string) (avgSentenceLen float64, punctuation int) {
	sentences := textnorm.Sentences(text)
	if len(sentences) > 0 {
		words := 0
		for _, s := range sentences {
			words += len(strings.Fields(s))
		}
		avgSentenceLen = float64(words) / float64(len(sentences))
	}
	for _, r := range text {
		if strings.ContainsRune(stylePunct, r) {
			punctuation++
		}
	}
	return avgSentenceLen, punctuation
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
