// Package ngram implements the reference-based overlap metrics used by the
// n-gram scorer: sentence BLEU, chrF and a shift-free TER.
package ngram

import (
	"errors"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/translation-arena/backend/internal/textnorm"
)

var ErrEmptyReference = errors.New("empty reference")

// BLEU is smoothed sentence-level BLEU over word n-grams.
type BLEU struct {
	MaxOrder int
}

func NewBLEU() BLEU { return BLEU{MaxOrder: 4} }

func (BLEU) Name() string { return "bleu" }

// Score returns BLEU in [0, 100]. Orders above one use add-one smoothing so a
// short candidate with some unigram overlap never collapses to zero.
func (b BLEU) Score(candidate, reference string) (float64, error) {
	ref := textnorm.Tokenize(reference)
	if len(ref) == 0 {
		return 0, ErrEmptyReference
	}
	cand := textnorm.Tokenize(candidate)
	if len(cand) == 0 {
		return 0, nil
	}
	order := b.MaxOrder
	if order <= 0 {
		order = 4
	}

	var logSum float64
	for n := 1; n <= order; n++ {
		matched, total := clippedMatches(ngrams(cand, n), ngrams(ref, n))
		if n == 1 {
			if matched == 0 {
				return 0, nil
			}
			logSum += math.Log(float64(matched) / float64(total))
			continue
		}
		logSum += math.Log(float64(matched+1) / float64(total+1))
	}

	bp := 1.0
	if c, r := len(cand), len(ref); c < r {
		bp = math.Exp(1 - float64(r)/float64(c))
	}
	return bp * math.Exp(logSum/float64(order)) * 100, nil
}

// ChrF is the character n-gram F-score. Whitespace is ignored.
type ChrF struct {
	Order int
	Beta  float64
}

func NewChrF() ChrF { return ChrF{Order: 6, Beta: 2} }

func (ChrF) Name() string { return "chrf" }

// Score returns chrF in [0, 100]. Precision and recall are averaged over the
// orders both texts are long enough to have.
func (c ChrF) Score(candidate, reference string) (float64, error) {
	ref := chars(reference)
	if len(ref) == 0 {
		return 0, ErrEmptyReference
	}
	cand := chars(candidate)
	if len(cand) == 0 {
		return 0, nil
	}

	var precSum, recSum float64
	orders := 0
	for n := 1; n <= c.Order; n++ {
		candGrams, refGrams := ngrams(cand, n), ngrams(ref, n)
		if len(candGrams) == 0 || len(refGrams) == 0 {
			break
		}
		matched, candTotal := clippedMatches(candGrams, refGrams)
		precSum += float64(matched) / float64(candTotal)
		recSum += float64(matched) / float64(countAll(refGrams))
		orders++
	}
	if orders == 0 {
		return 0, nil
	}
	p, r := precSum/float64(orders), recSum/float64(orders)
	if p == 0 && r == 0 {
		return 0, nil
	}
	beta2 := c.Beta * c.Beta
	return (1 + beta2) * p * r / (beta2*p + r) * 100, nil
}

// TER is the word edit rate against the reference, without block shifts.
// Lower is better.
type TER struct{}

func (TER) Name() string { return "ter" }

func (TER) Score(candidate, reference string) (float64, error) {
	ref := textnorm.Tokenize(reference)
	if len(ref) == 0 {
		return 0, ErrEmptyReference
	}
	cand := textnorm.Tokenize(candidate)
	a, b := encodeWords(cand, ref)
	return float64(levenshtein.ComputeDistance(a, b)) / float64(len(ref)) * 100, nil
}

// encodeWords maps each distinct word to one private-use rune so word-level edit
// distance can be computed as a string distance.
func encodeWords(xs, ys []string) (string, string) {
	ids := make(map[string]rune)
	enc := func(words []string) string {
		var sb strings.Builder
		for _, w := range words {
			r, ok := ids[w]
			if !ok {
				r = rune(0xF0000 + len(ids))
				ids[w] = r
			}
			sb.WriteRune(r)
		}
		return sb.String()
	}
	return enc(xs), enc(ys)
}

func chars(s string) []string {
	var out []string
	for _, r := range textnorm.Normalize(s) {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

// clippedMatches counts candidate n-grams found in the reference, each clipped to
// its reference count, and the total candidate n-grams.
func clippedMatches(cand, ref map[string]int) (matched, total int) {
	for g, c := range cand {
		total += c
		matched += min(c, ref[g])
	}
	return matched, total
}

func countAll(m map[string]int) int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}
