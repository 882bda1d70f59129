// Package langdetect decides which of two configured languages a text is written
// in, by the share of letters belonging to each language's script.
package langdetect

import (
	"fmt"
	"unicode"

	"golang.org/x/text/language"

	"github.com/translation-arena/backend/internal/scoring"
)

// DefaultThreshold is the share of letters a script needs to claim a text.
const DefaultThreshold = 0.6

// iso15924 maps script codes to the unicode package's script tables.
var iso15924 = map[string]string{
	"Arab": "Arabic",
	"Cyrl": "Cyrillic",
	"Deva": "Devanagari",
	"Grek": "Greek",
	"Hang": "Hangul",
	"Hani": "Han",
	"Hans": "Han",
	"Hant": "Han",
	"Hebr": "Hebrew",
	"Latn": "Latin",
	"Thai": "Thai",
}

type candidate struct {
	lang   scoring.Language
	script *unicode.RangeTable
}

// Detector recognises the source and target languages of a session. Languages that
// share a script cannot be told apart and always detect as unknown.
type Detector struct {
	langs     []candidate
	threshold float64
}

var _ scoring.LanguageDetector = (*Detector)(nil)

// New builds a detector for two BCP 47 language codes such as "en" and "ar".
func New(source, target string) (*Detector, error) {
	d := &Detector{threshold: DefaultThreshold}
	for _, code := range []string{source, target} {
		c, err := resolve(code)
		if err != nil {
			return nil, err
		}
		d.langs = append(d.langs, c)
	}
	if d.langs[0].script == d.langs[1].script {
		d.langs = nil
	}
	return d, nil
}

func resolve(code string) (candidate, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return candidate{}, fmt.Errorf("parse language %q: %w", code, err)
	}
	script, _ := tag.Script()
	name, ok := iso15924[script.String()]
	if !ok {
		return candidate{}, fmt.Errorf("language %q: unsupported script %s", code, script)
	}
	base, _ := tag.Base()
	return candidate{lang: scoring.Language(base.String()), script: unicode.Scripts[name]}, nil
}

// Detect returns the language whose script covers at least the threshold share of
// the text's letters, or LanguageUnknown.
func (d *Detector) Detect(text string) scoring.Language {
	if len(d.langs) == 0 {
		return scoring.LanguageUnknown
	}
	counts := make([]int, len(d.langs))
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		for i, c := range d.langs {
			if unicode.Is(c.script, r) {
				counts[i]++
			}
		}
	}
	if letters == 0 {
		return scoring.LanguageUnknown
	}
	for i, c := range d.langs {
		if float64(counts[i])/float64(letters) >= d.threshold {
			return c.lang
		}
	}
	return scoring.LanguageUnknown
}
