package gamification

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "game.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, database.DriverSQLite))
	return NewStore(db)
}

func boards(t *testing.T) map[string]Leaderboard {
	return map[string]Leaderboard{
		"memory": NewMemoryLeaderboard(),
		"sql":    newTestStore(t),
	}
}

func TestLeaderboard_KeepsBest(t *testing.T) {
	for name, lb := range boards(t) {
		t.Run(name, func(t *testing.T) {
			best, err := lb.Submit("amal", 30)
			require.NoError(t, err)
			assert.Equal(t, 30, best)

			best, err = lb.Submit("amal", 20)
			require.NoError(t, err)
			assert.Equal(t, 30, best, "a lower score must not replace the best")

			best, err = lb.Submit("amal", 45)
			require.NoError(t, err)
			assert.Equal(t, 45, best)
		})
	}
}

func TestLeaderboard_TopAndRank(t *testing.T) {
	for name, lb := range boards(t) {
		t.Run(name, func(t *testing.T) {
			for user, pts := range map[string]int{"amal": 40, "omar": 70, "sara": 40, "zaid": 10} {
				_, err := lb.Submit(user, pts)
				require.NoError(t, err)
			}

			top, err := lb.Top(3)
			require.NoError(t, err)
			require.Len(t, top, 3)
			assert.Equal(t, "omar", top[0].UserID)
			assert.Equal(t, 1, top[0].Rank)
			assert.Equal(t, "amal", top[1].UserID)
			assert.Equal(t, "sara", top[2].UserID)
			assert.Equal(t, 2, top[1].Rank)
			assert.Equal(t, 2, top[2].Rank, "tied scores share a rank")

			e, ok, err := lb.Get("zaid")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 10, e.Points)
			assert.Equal(t, 4, e.Rank)

			_, ok, err = lb.Get("nobody")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryLeaderboard_ConcurrentSubmits(t *testing.T) {
	lb := NewMemoryLeaderboard()
	var wg sync.WaitGroup
	for i := 1; i <= 200; i++ {
		wg.Add(1)
		go func(pts int) {
			defer wg.Done()
			lb.Submit("amal", pts)
		}(i)
	}
	wg.Wait()

	e, ok, _ := lb.Get("amal")
	require.True(t, ok)
	assert.Equal(t, 200, e.Points)
}

func TestStore_AwardEvents(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.LogAwardEvent("amal", "ev-1", 24, map[string]int{"base": 18}))
	require.NoError(t, s.LogAwardEvent("amal", "ev-2", 11, nil))
	require.NoError(t, s.LogAwardEvent("omar", "ev-3", 15, nil))

	events, err := s.ListAwardEvents("amal", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-2", events[0].EvaluationID)
	assert.Equal(t, "", events[0].Metadata)
	assert.JSONEq(t, `{"base":18}`, events[1].Metadata)
}
