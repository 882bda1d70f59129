// Package textnorm prepares raw text for the scorers and the diff engine.
//
// Tokenization is whitespace word splitting. Scripts without whitespace word
// boundaries are treated as one token per whitespace run; no morphological
// analysis is attempted.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxWords bounds the text handed to scorers.
const DefaultMaxWords = 500

// DefaultMaxDiffWords bounds each side of a word alignment. The alignment table
// grows with the product of both lengths.
const DefaultMaxDiffWords = 2000

// Normalize applies NFC composition and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Tokenize splits normalized text on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(norm.NFC.String(s))
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate keeps at most maxWords words. Text already within the budget is
// returned unchanged, including its original spacing.
func Truncate(s string, maxWords int) string {
	if maxWords <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}

// Fold returns a caseless form suitable for case-insensitive matching.
// A Caser is stateful, so a fresh one is used per call.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// sentenceEnd reports the terminators used for sentence splitting,
// including the Arabic question mark.
func sentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '؟':
		return true
	}
	return false
}

// Sentences splits text on sentence terminators and drops empty pieces.
func Sentences(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, sentenceEnd) {
		if strings.TrimSpace(part) != "" {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}

// StripPunct removes leading and trailing punctuation from a token.
func StripPunct(tok string) string {
	return strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
