package models

import (
	"errors"
	"fmt"
	"strings"
)

// SubmissionInput is one student translation submitted for evaluation.
// Candidate text is required, plus at least one of source or reference.
type SubmissionInput struct {
	SourceText    string `json:"source_text" validate:"required_without=ReferenceText"`
	ReferenceText string `json:"reference_text,omitempty" validate:"required_without=SourceText"`
	CandidateText string `json:"candidate_text" validate:"required"`
}

// HasReference reports whether a reference translation was supplied.
func (in SubmissionInput) HasReference() bool {
	return strings.TrimSpace(in.ReferenceText) != ""
}

// ValidationError reports malformed or missing required input.
// It is the only error evaluation surfaces to callers.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ── Request / Response Types ──────────────────────────────

type EvaluateRequest struct {
	SourceText    string `json:"source_text"`
	ReferenceText string `json:"reference_text,omitempty"`
	CandidateText string `json:"candidate_text"`
	ExerciseID    *int64 `json:"exercise_id,omitempty"`
}

func (r EvaluateRequest) Input() SubmissionInput {
	return SubmissionInput{
		SourceText:    r.SourceText,
		ReferenceText: r.ReferenceText,
		CandidateText: r.CandidateText,
	}
}

// ErrNotFound is returned by stores when a requested row does not exist.
var ErrNotFound = errors.New("not found")
