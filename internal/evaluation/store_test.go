package evaluation

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/database"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "eval.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, database.DriverSQLite))
	return NewStore(db)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	agg := newTestAggregator(Config{})
	rec, err := agg.Evaluate(context.Background(), greeting, []scoring.Kind{scoring.KindLexicalEdit}, Timing{})
	require.NoError(t, err)

	exerciseID := int64(2)
	require.NoError(t, s.SaveRecord("amal", &exerciseID, rec))

	body, err := s.GetRecord("amal", rec.ID)
	require.NoError(t, err)

	var got struct {
		ID      string                 `json:"id"`
		Version int                    `json:"version"`
		Input   models.SubmissionInput `json:"input"`
		Kinds   []string               `json:"kinds"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, RecordVersion, got.Version)
	assert.Equal(t, greeting.CandidateText, got.Input.CandidateText)
	assert.Equal(t, []string{"lexical_edit"}, got.Kinds)

	_, err = s.GetRecord("omar", rec.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "records are private to their owner")

	history, err := s.ListRecords("amal", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)
	require.NotNil(t, history[0].ExerciseID)
	assert.Equal(t, int64(2), *history[0].ExerciseID)
	require.NotNil(t, history[0].Similarity)
}

func TestStore_ListOrder(t *testing.T) {
	s := newTestStore(t)
	for i, id := range []string{"a", "b", "c"} {
		rec := &Record{
			ID:        id,
			Version:   RecordVersion,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
			Input:     models.SubmissionInput{SourceText: "x", CandidateText: id},
			Scores:    map[scoring.Kind]scoring.Result{},
		}
		require.NoError(t, s.SaveRecord("amal", nil, rec))
	}

	history, err := s.ListRecords("amal", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].ID)
	assert.Equal(t, "b", history[1].ID)
	assert.Nil(t, history[0].Similarity)
	assert.Nil(t, history[0].ExerciseID)

	empty, err := s.ListRecords("nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
