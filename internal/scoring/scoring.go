// Package scoring holds the pluggable translation-quality scorers.
//
// Every scorer is independent: it reads the same immutable submission, may call
// one injected backend, and reports either a Result or an error. A missing or
// failing backend degrades only that scorer; the aggregator turns the error into
// an unavailable Result.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/translation-arena/backend/internal/models"
)

var (
	// ErrScorerUnavailable marks a scorer whose backend is missing, failed or timed out.
	ErrScorerUnavailable = errors.New("scorer unavailable")
	// ErrMissingReference marks a scorer that needs reference_text when none was given.
	ErrMissingReference = errors.New("reference text required")
)

// Kind identifies a scorer strategy.
type Kind string

const (
	KindLexicalEdit       Kind = "lexical_edit"
	KindNgramOverlap      Kind = "ngram_overlap"
	KindSemantic          Kind = "semantic_similarity"
	KindContradiction     Kind = "contradiction"
	KindImageryLoss       Kind = "imagery_loss"
	KindStylisticMismatch Kind = "stylistic_mismatch"
	KindFluency           Kind = "fluency"
)

// AllKinds lists every scorer in declaration order. Warnings are merged in this order.
var AllKinds = []Kind{
	KindLexicalEdit,
	KindNgramOverlap,
	KindSemantic,
	KindContradiction,
	KindImageryLoss,
	KindStylisticMismatch,
	KindFluency,
}

// ParseKind maps a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown scorer kind %q", s)
}

// WarningKind enumerates the warnings a scorer may raise.
type WarningKind string

const (
	WarnContradiction     WarningKind = "contradiction"
	WarnLowSimilarity     WarningKind = "low_similarity"
	WarnLiteraryLoss      WarningKind = "literary_loss"
	WarnStylisticMismatch WarningKind = "stylistic_mismatch"
)

type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Result is the outcome of one scorer. Detail holds the scorer-specific payload
// (LexicalDetail, NgramDetail, ...). Unavailable results carry the reason in Error.
type Result struct {
	Kind      Kind      `json:"kind"`
	Value     float64   `json:"value"`
	Detail    any       `json:"detail,omitempty"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Available bool      `json:"available"`
	Error     string    `json:"error,omitempty"`
}

// Unavailable builds the Result recorded for a failed scorer.
func Unavailable(kind Kind, err error) Result {
	reason := ErrScorerUnavailable.Error()
	if err != nil {
		reason = err.Error()
	}
	return Result{Kind: kind, Available: false, Error: reason}
}

// Scorer is one capability-tagged scoring strategy.
type Scorer interface {
	Kind() Kind
	// Ready reports whether the scorer's backends were wired. It is checked at
	// startup and before every call.
	Ready() error
	Score(ctx context.Context, in models.SubmissionInput) (Result, error)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// comparisonText picks the text a candidate is measured against: the reference when
// present, otherwise the source.
func comparisonText(in models.SubmissionInput) (text, against string) {
	if in.HasReference() {
		return in.ReferenceText, "reference"
	}
	return in.SourceText, "source"
}

// premiseText picks the text a candidate should preserve meaning with: the source
// when present, otherwise the reference.
func premiseText(in models.SubmissionInput) (text, against string) {
	if strings.TrimSpace(in.SourceText) != "" {
		return in.SourceText, "source"
	}
	return in.ReferenceText, "reference"
}
