package evaluation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/translation-arena/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Summary is one row of a user's evaluation history.
type Summary struct {
	ID            string    `json:"id"`
	ExerciseID    *int64    `json:"exercise_id,omitempty"`
	CandidateText string    `json:"candidate_text"`
	Similarity    *float64  `json:"similarity,omitempty"`
	WarningCount  int       `json:"warning_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Store) SaveRecord(userID string, exerciseID *int64, rec *Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var similarity *float64
	if d, ok := rec.Lexical(); ok {
		similarity = &d.Similarity
	}
	_, err = s.db.Exec(
		`INSERT INTO evaluations (id, user_id, exercise_id, candidate_text, similarity, warning_count, record, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, userID, exerciseID, rec.Input.CandidateText, similarity, len(rec.Warnings), string(body), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// GetRecord returns the stored JSON of one of the user's evaluations.
func (s *Store) GetRecord(userID, id string) (json.RawMessage, error) {
	var body string
	err := s.db.QueryRow(
		`SELECT record FROM evaluations WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return json.RawMessage(body), nil
}

func (s *Store) ListRecords(userID string, limit int) ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT id, exercise_id, candidate_text, similarity, warning_count, created_at
		 FROM evaluations WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var exerciseID sql.NullInt64
		var similarity sql.NullFloat64
		if err := rows.Scan(&sm.ID, &exerciseID, &sm.CandidateText, &similarity, &sm.WarningCount, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if exerciseID.Valid {
			sm.ExerciseID = &exerciseID.Int64
		}
		if similarity.Valid {
			sm.Similarity = &similarity.Float64
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
