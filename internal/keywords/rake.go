// Package keywords extracts key phrases locally with a RAKE-style co-occurrence
// score. It backs the imagery scorer when no keyword sidecar is configured.
package keywords

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/translation-arena/backend/internal/scoring"
	"github.com/translation-arena/backend/internal/textnorm"
)

// Extractor splits text into candidate phrases at stopwords and punctuation and
// scores each phrase as the sum of its words' degree/frequency ratios.
type Extractor struct {
	stopwords map[string]bool
	maxWords  int
}

// NewExtractor builds an extractor with the built-in English and Arabic stopwords
// plus any extra words given.
func NewExtractor(extra ...string) *Extractor {
	sw := make(map[string]bool, len(defaultStopwords)+len(extra))
	for _, w := range defaultStopwords {
		sw[textnorm.Fold(w)] = true
	}
	for _, w := range extra {
		sw[textnorm.Fold(w)] = true
	}
	return &Extractor{stopwords: sw, maxWords: 3}
}

var _ scoring.KeywordExtractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, text string, topN int) ([]scoring.Keyword, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates := e.phrases(text)
	if len(candidates) == 0 {
		return []scoring.Keyword{}, nil
	}

	freq := make(map[string]int)
	degree := make(map[string]int)
	for _, p := range candidates {
		for _, w := range p {
			freq[w]++
			degree[w] += len(p)
		}
	}

	scores := make(map[string]float64)
	for _, p := range candidates {
		phrase := strings.Join(p, " ")
		if _, ok := scores[phrase]; ok {
			continue
		}
		var s float64
		for _, w := range p {
			s += float64(degree[w]) / float64(freq[w])
		}
		scores[phrase] = s
	}

	out := make([]scoring.Keyword, 0, len(scores))
	for phrase, s := range scores {
		out = append(out, scoring.Keyword{Phrase: phrase, Weight: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Phrase < out[j].Phrase
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// phrases returns runs of non-stopwords, each at most maxWords long, folded.
func (e *Extractor) phrases(text string) [][]string {
	var out [][]string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}

	for _, chunk := range strings.FieldsFunc(textnorm.Fold(text), isBreak) {
		for _, tok := range strings.Fields(chunk) {
			w := textnorm.StripPunct(tok)
			if w == "" || e.stopwords[w] || isNumber(w) {
				flush()
				continue
			}
			cur = append(cur, w)
			if len(cur) == e.maxWords {
				flush()
			}
		}
		flush()
	}
	return out
}

// isBreak splits on clause punctuation but keeps apostrophes inside words.
func isBreak(r rune) bool {
	if r == '\'' || r == '’' || r == '-' {
		return false
	}
	return unicode.IsPunct(r)
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var defaultStopwords = []string{
	"a", "about", "after", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "but", "by", "can", "cannot", "could", "did", "do", "does",
	"for", "from", "had", "has", "have", "he", "her", "here", "him", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "me", "my", "no", "not", "of", "on",
	"or", "our", "out", "she", "so", "than", "that", "the", "their", "them", "then",
	"there", "these", "they", "this", "those", "to", "too", "up", "us", "was", "we",
	"were", "what", "when", "where", "which", "while", "who", "why", "will", "with",
	"would", "you", "your",
	"في", "من", "على", "إلى", "عن", "مع", "هذا", "هذه", "ذلك", "التي", "الذي",
	"و", "أو", "ثم", "لا", "لم", "لن", "ما", "هو", "هي", "أنا", "أنت", "نحن", "كان",
}
