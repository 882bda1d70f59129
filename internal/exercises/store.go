package exercises

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/translation-arena/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	var ex models.Exercise
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, source_text, reference_text, created_at
		 FROM exercises WHERE id = $1`,
		id,
	).Scan(&ex.ID, &ex.Title, &ex.SourceText, &ex.ReferenceText, &ex.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return &ex, nil
}

func (s *Store) ListExercises(limit, offset int) ([]models.Exercise, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exercises: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT id, title, source_text, reference_text, created_at
		 FROM exercises ORDER BY id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	out, err := scanExercises(rows)
	return out, total, err
}

// ExerciseIDs returns every catalogue id in ascending order.
func (s *Store) ExerciseIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list exercise ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan exercise id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ── Export/Import ────────────────────────────────────────

func (s *Store) ExportExercises() ([]models.ExerciseInput, error) {
	rows, err := s.db.Query(`SELECT id, title, source_text, reference_text, created_at FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export exercises: %w", err)
	}
	defer rows.Close()

	all, err := scanExercises(rows)
	if err != nil {
		return nil, err
	}
	out := make([]models.ExerciseInput, 0, len(all))
	for _, ex := range all {
		out = append(out, models.ExerciseInput{Title: ex.Title, SourceText: ex.SourceText, ReferenceText: ex.ReferenceText})
	}
	return out, nil
}

// ImportExercises inserts the exercises in one transaction, skipping any whose
// source text is already catalogued.
func (s *Store) ImportExercises(ctx context.Context, in []models.ExerciseInput) (*models.ExerciseImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result := &models.ExerciseImportResult{TotalInPayload: len(in)}
	for _, ex := range in {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM exercises WHERE source_text = $1)`,
			ex.SourceText,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check existing: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO exercises (title, source_text, reference_text) VALUES ($1, $2, $3)`,
			ex.Title, ex.SourceText, ex.ReferenceText,
		)
		if err != nil {
			return nil, fmt.Errorf("insert exercise: %w", err)
		}
		result.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}

func scanExercises(rows *sql.Rows) ([]models.Exercise, error) {
	out := []models.Exercise{}
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Title, &ex.SourceText, &ex.ReferenceText, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
