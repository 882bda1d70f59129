package evaluation

import (
	"time"

	"github.com/translation-arena/backend/internal/diff"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
)

// RecordVersion is bumped whenever the shape or meaning of Record changes.
const RecordVersion = 1

// Highlights are the spans of the candidate worth marking up: contradicting
// phrases and the source key phrases that went missing.
type Highlights struct {
	Contradictions []scoring.PhraseHit `json:"contradictions"`
	LiteraryLoss   []string            `json:"literary_loss"`
}

// Record is the result of one evaluation. It is built once by the Aggregator and
// never modified afterwards.
type Record struct {
	ID        string                 `json:"id"`
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	Input     models.SubmissionInput `json:"input"`
	Truncated bool                   `json:"truncated"`

	Opcodes  []diff.Opcode  `json:"opcodes"`
	Feedback []string       `json:"feedback"`
	Segments []diff.Segment `json:"segments"`
	DiffHTML string         `json:"diff_html,omitempty"`

	Kinds    []scoring.Kind                  `json:"kinds"`
	Scores   map[scoring.Kind]scoring.Result `json:"scores"`
	Warnings []scoring.Warning               `json:"warnings"`

	Highlights      Highlights `json:"highlights"`
	HighlightedHTML string     `json:"highlighted_html"`
	Suggestions     []string   `json:"suggestions"`

	// Duration is how long the evaluation itself took.
	Duration time.Duration `json:"duration_ns"`
	// Elapsed is the time since the timing start, when one was given.
	Elapsed *time.Duration `json:"elapsed_ns,omitempty"`
}

// Result returns the result for kind and whether that scorer produced a value.
func (r *Record) Result(kind scoring.Kind) (scoring.Result, bool) {
	res, ok := r.Scores[kind]
	return res, ok && res.Available
}

// Lexical returns the edit-distance detail when the lexical scorer succeeded.
func (r *Record) Lexical() (scoring.LexicalDetail, bool) {
	res, ok := r.Result(scoring.KindLexicalEdit)
	if !ok {
		return scoring.LexicalDetail{}, false
	}
	d, ok := res.Detail.(scoring.LexicalDetail)
	return d, ok
}

// HasWarning reports whether any scorer raised a warning of kind.
func (r *Record) HasWarning(kind scoring.WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// Available lists the kinds that produced a value, in evaluation order.
func (r *Record) Available() []scoring.Kind {
	var out []scoring.Kind
	for _, k := range r.Kinds {
		if r.Scores[k].Available {
			out = append(out, k)
		}
	}
	return out
}
