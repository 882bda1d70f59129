package diff

import (
	"html"
	"strings"
)

// Segment is one renderable piece of the candidate text.
//
// Equal and Insert segments carry candidate words. Replace carries the candidate
// words plus the reference words as Suggestion. Delete carries the reference words
// that are missing from the candidate.
type Segment struct {
	Tag        Tag    `json:"tag"`
	Text       string `json:"text"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Segments converts opcodes into highlight segments in alignment order.
func Segments(ops []Opcode) []Segment {
	segs := make([]Segment, 0, len(ops))
	for _, op := range ops {
		switch op.Tag {
		case Equal, Insert:
			segs = append(segs, Segment{Tag: op.Tag, Text: join(op.Candidate)})
		case Replace:
			segs = append(segs, Segment{Tag: op.Tag, Text: join(op.Candidate), Suggestion: join(op.Reference)})
		case Delete:
			segs = append(segs, Segment{Tag: op.Tag, Text: join(op.Reference)})
		}
	}
	return segs
}

var htmlClass = map[Tag]string{
	Equal:   "diff-equal",
	Replace: "diff-replace",
	Insert:  "diff-insert",
	Delete:  "diff-delete",
}

// RenderHTML renders the alignment as inline spans. Missing reference words are
// wrapped in <del>, substitutions carry the reference wording in a title attribute.
func RenderHTML(ops []Opcode) string {
	var b strings.Builder
	for i, seg := range Segments(ops) {
		if i > 0 {
			b.WriteByte(' ')
		}
		text := html.EscapeString(seg.Text)
		b.WriteString(`<span class="`)
		b.WriteString(htmlClass[seg.Tag])
		b.WriteByte('"')
		if seg.Suggestion != "" {
			b.WriteString(` title="`)
			b.WriteString(html.EscapeString(seg.Suggestion))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		if seg.Tag == Delete {
			b.WriteString("<del>" + text + "</del>")
		} else {
			b.WriteString(text)
		}
		b.WriteString("</span>")
	}
	return b.String()
}
