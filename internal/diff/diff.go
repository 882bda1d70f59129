// Package diff aligns a reference translation with a candidate at word level
// and turns the alignment into feedback and highlight segments.
package diff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/translation-arena/backend/internal/textnorm"
)

// Tag classifies one span of an alignment.
type Tag int

const (
	Equal Tag = iota
	Replace
	Insert
	Delete
)

func (t Tag) String() string {
	switch t {
	case Equal:
		return "equal"
	case Replace:
		return "replace"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "equal":
		*t = Equal
	case "replace":
		*t = Replace
	case "insert":
		*t = Insert
	case "delete":
		*t = Delete
	default:
		return fmt.Errorf("unknown diff tag %q", s)
	}
	return nil
}

// Opcode is one classified span. Reference tokens are [RefStart, RefEnd) of the
// reference sequence and candidate tokens are [CandStart, CandEnd) of the candidate.
// Insert has an empty reference span and Delete an empty candidate span.
type Opcode struct {
	Tag       Tag      `json:"tag"`
	Reference []string `json:"reference"`
	Candidate []string `json:"candidate"`
	RefStart  int      `json:"ref_start"`
	RefEnd    int      `json:"ref_end"`
	CandStart int      `json:"cand_start"`
	CandEnd   int      `json:"cand_end"`
}

// AlignText tokenizes both texts on whitespace and aligns them.
func AlignText(reference, candidate string) []Opcode {
	return Align(textnorm.Tokenize(reference), textnorm.Tokenize(candidate))
}

// Align computes a minimal word-level edit script from reference to candidate.
//
// Equal runs are maximal and every pair of neighbouring equal runs is separated by
// exactly one Replace, Insert or Delete opcode. Among alignments of equal length the
// leftmost longest common subsequence is chosen. Concatenating the reference spans
// in order yields reference; the candidate spans yield candidate.
func Align(reference, candidate []string) []Opcode {
	// A shared prefix is always part of the leftmost alignment.
	prefix := 0
	for prefix < len(reference) && prefix < len(candidate) && reference[prefix] == candidate[prefix] {
		prefix++
	}
	a, b := reference[prefix:], candidate[prefix:]
	n, m := len(a), len(b)

	// lcs[i*(m+1)+j] is the LCS length of a[i:] and b[j:].
	width := m + 1
	lcs := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				lcs[i*width+j] = lcs[(i+1)*width+j+1] + 1
			case lcs[(i+1)*width+j] >= lcs[i*width+j+1]:
				lcs[i*width+j] = lcs[(i+1)*width+j]
			default:
				lcs[i*width+j] = lcs[i*width+j+1]
			}
		}
	}

	ob := opBuilder{ref: reference, cand: candidate}
	if prefix > 0 {
		ob.step(stepEqual, prefix)
	}
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ob.step(stepEqual, 1)
			i++
			j++
		case lcs[(i+1)*width+j] >= lcs[i*width+j+1]:
			ob.step(stepDelete, 1)
			i++
		default:
			ob.step(stepInsert, 1)
			j++
		}
	}
	if i < n {
		ob.step(stepDelete, n-i)
	}
	if j < m {
		ob.step(stepInsert, m-j)
	}
	return ob.finish()
}

type stepKind int

const (
	stepEqual stepKind = iota
	stepDelete
	stepInsert
)

// opBuilder folds single alignment steps into maximal opcodes.
type opBuilder struct {
	ref, cand []string
	ops       []Opcode

	// cursor into both sequences
	ri, ci int
	// start of the pending run
	rs, cs  int
	inEqual bool
	started bool
}

func (ob *opBuilder) step(kind stepKind, count int) {
	isEqual := kind == stepEqual
	if ob.started && isEqual != ob.inEqual {
		ob.flush()
	}
	if !ob.started {
		ob.started = true
		ob.inEqual = isEqual
		ob.rs, ob.cs = ob.ri, ob.ci
	}
	switch kind {
	case stepEqual:
		ob.ri += count
		ob.ci += count
	case stepDelete:
		ob.ri += count
	case stepInsert:
		ob.ci += count
	}
}

func (ob *opBuilder) flush() {
	if !ob.started {
		return
	}
	op := Opcode{
		Reference: ob.ref[ob.rs:ob.ri],
		Candidate: ob.cand[ob.cs:ob.ci],
		RefStart:  ob.rs,
		RefEnd:    ob.ri,
		CandStart: ob.cs,
		CandEnd:   ob.ci,
	}
	switch {
	case ob.inEqual:
		op.Tag = Equal
	case len(op.Reference) > 0 && len(op.Candidate) > 0:
		op.Tag = Replace
	case len(op.Reference) > 0:
		op.Tag = Delete
	default:
		op.Tag = Insert
	}
	ob.ops = append(ob.ops, op)
	ob.started = false
}

func (ob *opBuilder) finish() []Opcode {
	ob.flush()
	return ob.ops
}

// Feedback turns an alignment into human-readable correction messages, one per
// non-equal opcode, in alignment order.
func Feedback(ops []Opcode) []string {
	var out []string
	for _, op := range ops {
		switch op.Tag {
		case Replace:
			out = append(out, fmt.Sprintf("Replace '%s' with '%s'", join(op.Candidate), join(op.Reference)))
		case Insert:
			out = append(out, fmt.Sprintf("Extra words: '%s'", join(op.Candidate)))
		case Delete:
			out = append(out, fmt.Sprintf("Missing: '%s'", join(op.Reference)))
		}
	}
	return out
}

func join(toks []string) string {
	return strings.Join(toks, " ")
}
