package scoring

import "context"

// The capabilities below are injected at startup. Any of them may be nil, in which
// case the scorer that needs it reports ErrScorerUnavailable.

// EmbeddingBackend returns the cosine similarity of two texts' embeddings, in [-1, 1].
type EmbeddingBackend interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// NLILabel is a natural-language-inference verdict.
type NLILabel string

const (
	LabelEntailment    NLILabel = "entailment"
	LabelNeutral       NLILabel = "neutral"
	LabelContradiction NLILabel = "contradiction"
)

type Classification struct {
	Label      NLILabel `json:"label"`
	Confidence float64  `json:"confidence"`
}

// ClassificationBackend classifies a (premise, hypothesis) pair.
type ClassificationBackend interface {
	Classify(ctx context.Context, premise, hypothesis string) (Classification, error)
}

type Keyword struct {
	Phrase string  `json:"phrase"`
	Weight float64 `json:"weight"`
}

// KeywordExtractor returns up to topN key phrases ordered by descending weight.
type KeywordExtractor interface {
	Extract(ctx context.Context, text string, topN int) ([]Keyword, error)
}

// NgramMetric is one reference-based metric family (BLEU, chrF, TER, ...).
type NgramMetric interface {
	Name() string
	Score(candidate, reference string) (float64, error)
}

// Language is a detected language code. Detectors only ever return the configured
// source language, the configured target language, or LanguageUnknown.
type Language string

const LanguageUnknown Language = ""

type LanguageDetector interface {
	Detect(text string) Language
}

// FluencyBackend returns a perplexity-derived fluency estimate for text in lang.
type FluencyBackend interface {
	Score(ctx context.Context, text string, lang Language) (float64, error)
}
