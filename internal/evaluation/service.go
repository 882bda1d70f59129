package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/translation-arena/backend/internal/models"
)

// ExerciseSource looks up catalogue exercises.
type ExerciseSource interface {
	GetExercise(ctx context.Context, id int64) (*models.Exercise, error)
}

// Game applies an evaluation to the caller's session.
type Game interface {
	// ChallengeStart returns when the caller's timer challenge began, if one is running.
	ChallengeStart(userID string) *time.Time
	Award(ctx context.Context, userID string, rec *Record) (*models.AwardResponse, error)
}

type EvaluateResponse struct {
	Record *Record               `json:"record"`
	Award  *models.AwardResponse `json:"award,omitempty"`
}

type Service struct {
	agg       *Aggregator
	store     *Store
	exercises ExerciseSource
	game      Game
}

// NewService wires the evaluation flow. store, exercises and game may be nil, in
// which case records are not persisted, exercise ids are rejected, and no points
// are awarded.
func NewService(agg *Aggregator, store *Store, exercises ExerciseSource, game Game) *Service {
	return &Service{agg: agg, store: store, exercises: exercises, game: game}
}

// Evaluate resolves an exercise if one is referenced, evaluates the submission,
// persists the record and awards points.
func (s *Service) Evaluate(ctx context.Context, userID string, req models.EvaluateRequest) (*EvaluateResponse, error) {
	in := req.Input()
	if req.ExerciseID != nil {
		if s.exercises == nil {
			return nil, &models.ValidationError{Errors: []string{"exercises are not available"}}
		}
		ex, err := s.exercises.GetExercise(ctx, *req.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("get exercise %d: %w", *req.ExerciseID, err)
		}
		if in.SourceText == "" {
			in.SourceText = ex.SourceText
		}
		if in.ReferenceText == "" {
			in.ReferenceText = ex.ReferenceText
		}
	}

	var timing Timing
	if s.game != nil {
		timing.Start = s.game.ChallengeStart(userID)
	}

	rec, err := s.agg.Evaluate(ctx, in, nil, timing)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveRecord(userID, req.ExerciseID, rec); err != nil {
			log.Printf("[evaluation] failed to save record %s for %s: %v", rec.ID, userID, err)
		}
	}

	resp := &EvaluateResponse{Record: rec}
	if s.game != nil {
		award, err := s.game.Award(ctx, userID, rec)
		if err != nil {
			return nil, fmt.Errorf("award: %w", err)
		}
		resp.Award = award
	}
	return resp, nil
}

func (s *Service) GetRecord(userID, id string) (json.RawMessage, error) {
	if s.store == nil {
		return nil, models.ErrNotFound
	}
	return s.store.GetRecord(userID, id)
}

func (s *Service) History(userID string, limit int) ([]Summary, error) {
	if s.store == nil {
		return []Summary{}, nil
	}
	return s.store.ListRecords(userID, limit)
}
