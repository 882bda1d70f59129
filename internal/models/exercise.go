package models

import "time"

// Exercise is a catalogued source passage with its reference translation.
type Exercise struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	SourceText    string    `json:"source_text"`
	ReferenceText string    `json:"reference_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExerciseInput is one exercise in an import or export payload.
type ExerciseInput struct {
	Title         string `json:"title" yaml:"title"`
	SourceText    string `json:"source_text" yaml:"source_text"`
	ReferenceText string `json:"reference_text" yaml:"reference_text"`
}

// ExerciseEnvelope is the versioned catalogue exchange format.
type ExerciseEnvelope struct {
	Version    int             `json:"version" yaml:"version"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Exercises  []ExerciseInput `json:"exercises" yaml:"exercises"`
}

type ExerciseImportResult struct {
	TotalInPayload int `json:"total_in_payload"`
	Imported       int `json:"imported"`
	Skipped        int `json:"skipped"`
}

type ExerciseListResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
}
