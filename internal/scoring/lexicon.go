package scoring

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/translation-arena/backend/internal/textnorm"
)

//go:embed default_lexicon.yaml
var defaultLexiconYAML []byte

// PhraseHit is a translation phrase that contradicts a phrase in the source.
type PhraseHit struct {
	Phrase string `json:"phrase"`
	Source string `json:"source"`
}

// Lexicon maps source phrases to contradicting translation phrases.
type Lexicon struct {
	entries map[string][]string
	order   []string
}

type lexiconFile struct {
	Phrases map[string][]string `yaml:"phrases"`
}

// ParseLexicon reads a YAML lexicon document.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	lx := &Lexicon{entries: make(map[string][]string, len(f.Phrases))}
	for phrase, opposites := range f.Phrases {
		key := textnorm.Fold(strings.TrimSpace(phrase))
		if key == "" {
			continue
		}
		for _, o := range opposites {
			if o = textnorm.Fold(strings.TrimSpace(o)); o != "" {
				lx.entries[key] = append(lx.entries[key], o)
			}
		}
	}
	for k := range lx.entries {
		lx.order = append(lx.order, k)
	}
	sort.Strings(lx.order)
	return lx, nil
}

// LoadLexicon reads a lexicon file, or the built-in lexicon when path is empty.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	lx, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(err)
	}
	return lx
}

// Len returns the number of source phrases.
func (lx *Lexicon) Len() int {
	if lx == nil {
		return 0
	}
	return len(lx.order)
}

// Opposites returns the contradicting phrases registered for a source phrase.
func (lx *Lexicon) Opposites(phrase string) []string {
	if lx == nil {
		return nil
	}
	return lx.entries[textnorm.Fold(phrase)]
}

// Lookup returns every contradicting phrase present in translation whose source
// phrase is present in source. Each translation phrase is reported once.
func (lx *Lexicon) Lookup(source, translation string) []PhraseHit {
	if lx == nil {
		return nil
	}
	src := textnorm.Fold(source)
	trans := textnorm.Fold(translation)

	var hits []PhraseHit
	seen := make(map[string]bool)
	for _, phrase := range lx.order {
		if !strings.Contains(src, phrase) {
			continue
		}
		for _, opp := range lx.entries[phrase] {
			if seen[opp] || !strings.Contains(trans, opp) {
				continue
			}
			seen[opp] = true
			hits = append(hits, PhraseHit{Phrase: opp, Source: phrase})
		}
	}
	return hits
}
