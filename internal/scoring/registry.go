package scoring

import "fmt"

// Backends is the set of injected capabilities. Nil members degrade the scorers
// that depend on them.
type Backends struct {
	Embedding  EmbeddingBackend
	Classifier ClassificationBackend
	Keywords   KeywordExtractor
	Metrics    []NgramMetric
	Detector   LanguageDetector
	Fluency    FluencyBackend
	Lexicon    *Lexicon
}

type Options struct {
	SimilarityThreshold  float64
	TopKeywords          int
	LengthTolerance      float64
	PunctuationTolerance int
}

func DefaultOptions() Options {
	return Options{
		SimilarityThreshold:  DefaultSimilarityThreshold,
		TopKeywords:          DefaultTopKeywords,
		LengthTolerance:      DefaultLengthTolerance,
		PunctuationTolerance: DefaultPunctuationTolerance,
	}
}

// Registry holds one scorer per Kind, in declaration order.
type Registry struct {
	scorers map[Kind]Scorer
}

// NewRegistry wires the built-in scorers to the given backends.
func NewRegistry(b Backends, opts Options) *Registry {
	lexicon := b.Lexicon
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	r := &Registry{scorers: make(map[Kind]Scorer, len(AllKinds))}
	r.Register(LexicalScorer{})
	r.Register(NewNgramScorer(b.Metrics...))
	r.Register(NewSemanticScorer(b.Embedding, opts.SimilarityThreshold))
	r.Register(NewContradictionScorer(b.Classifier, lexicon))
	r.Register(NewImageryScorer(b.Keywords, opts.TopKeywords))
	r.Register(NewStylisticScorer(opts.LengthTolerance, opts.PunctuationTolerance))
	r.Register(NewFluencyScorer(b.Detector, b.Fluency))
	return r
}

// Register installs or replaces the scorer for s.Kind().
func (r *Registry) Register(s Scorer) {
	r.scorers[s.Kind()] = s
}

// Get returns the scorer registered for kind.
func (r *Registry) Get(kind Kind) (Scorer, bool) {
	s, ok := r.scorers[kind]
	return s, ok
}

// Select returns the enabled scorers in declaration order. An empty enabled set
// selects every registered scorer.
func (r *Registry) Select(enabled []Kind) []Scorer {
	want := make(map[Kind]bool, len(enabled))
	for _, k := range enabled {
		want[k] = true
	}
	var out []Scorer
	for _, k := range AllKinds {
		s, ok := r.scorers[k]
		if !ok {
			continue
		}
		if len(want) > 0 && !want[k] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Readiness reports, per kind, nil when the scorer's backends are wired or the
// reason it will be unavailable.
func (r *Registry) Readiness() map[Kind]error {
	out := make(map[Kind]error, len(r.scorers))
	for _, k := range AllKinds {
		if s, ok := r.scorers[k]; ok {
			out[k] = s.Ready()
		}
	}
	return out
}

// ParseKinds converts configuration strings into Kinds.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, fmt.Errorf("enabled scorers: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
