// Package exercises serves the catalogue of source passages students translate.
package exercises

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/translation-arena/backend/internal/models"
)

const EnvelopeVersion = 1

type Service struct {
	store *Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService builds the catalogue service. rng picks random exercises; a nil rng
// is seeded from the clock.
func NewService(store *Store, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1))
	}
	return &Service{store: store, rng: rng}
}

func (s *Service) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

// Random picks one catalogued exercise uniformly.
func (s *Service) Random(ctx context.Context) (*models.Exercise, error) {
	ids, err := s.store.ExerciseIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, models.ErrNotFound
	}

	s.mu.Lock()
	id := ids[s.rng.IntN(len(ids))]
	s.mu.Unlock()
	return s.store.GetExercise(ctx, id)
}

func (s *Service) List(limit, offset int) (*models.ExerciseListResponse, error) {
	exercises, total, err := s.store.ListExercises(limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.ExerciseListResponse{Exercises: exercises, Total: total}, nil
}

// ── Export/Import ────────────────────────────────────────

func (s *Service) Export() (*models.ExerciseEnvelope, error) {
	exercises, err := s.store.ExportExercises()
	if err != nil {
		return nil, fmt.Errorf("export exercises: %w", err)
	}
	return &models.ExerciseEnvelope{
		Version:    EnvelopeVersion,
		ExportedAt: time.Now().UTC(),
		Exercises:  exercises,
	}, nil
}

func (s *Service) Import(ctx context.Context, envelope models.ExerciseEnvelope) (*models.ExerciseImportResult, error) {
	if envelope.Version != EnvelopeVersion {
		return nil, fmt.Errorf("unsupported export version: %d", envelope.Version)
	}
	for i, ex := range envelope.Exercises {
		if err := validateExercise(ex); err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i+1, err)
		}
	}
	return s.store.ImportExercises(ctx, envelope.Exercises)
}

func validateExercise(ex models.ExerciseInput) error {
	if strings.TrimSpace(ex.Title) == "" {
		return fmt.Errorf("empty title")
	}
	if strings.TrimSpace(ex.SourceText) == "" {
		return fmt.Errorf("empty source_text")
	}
	if strings.TrimSpace(ex.ReferenceText) == "" {
		return fmt.Errorf("empty reference_text")
	}
	return nil
}
