package gamification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/middleware"
	"github.com/translation-arena/backend/internal/models"
)

type countingObserver struct{ points, badges int }

func (o *countingObserver) PointsAwarded(points int, unlocked []string) {
	o.points += points
	o.badges += len(unlocked)
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *testClock, *countingObserver) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	obs := &countingObserver{}
	store := newTestStore(t)
	svc := NewService(
		NewEngine(DefaultRules(), nil, seeded(3)),
		NewSessionStore(clock.Now),
		store,
		WithEventLog(store),
		WithObserver(obs),
		WithClock(clock.Now),
	)
	return svc, clock, obs
}

func TestService_AwardStartsSession(t *testing.T) {
	svc, _, obs := newTestService(t)
	ctx := context.Background()

	_, err := svc.CurrentSession("amal")
	assert.ErrorIs(t, err, ErrNoSession)

	resp, err := svc.Award(ctx, "amal", lexicalRecord(3, 86.36))
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Points)
	assert.Equal(t, 20, resp.Session.CumulativeScore)
	assert.Equal(t, 1, resp.Session.AttemptCount)
	assert.Equal(t, 20, resp.LeaderboardPoints)
	assert.NotNil(t, resp.BadgesUnlocked)
	assert.Equal(t, 20, obs.points)

	awards, err := svc.AwardHistory("amal", 10)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, 20, awards[0].Points)
}

func TestService_LeaderboardKeepsBestAcrossSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Award(ctx, "amal", lexicalRecord(10, 50))
		require.NoError(t, err)
	}
	first, err := svc.EndSession("amal")
	require.NoError(t, err)
	assert.Equal(t, 45, first.CumulativeScore)

	resp, err := svc.Award(ctx, "amal", lexicalRecord(10, 50))
	require.NoError(t, err)
	assert.Equal(t, 15, resp.Session.CumulativeScore)
	assert.Equal(t, 45, resp.LeaderboardPoints)

	board, err := svc.Leaderboard("amal", 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 45, board.Entries[0].Points)
	assert.True(t, board.Entries[0].IsCurrentUser)
	require.NotNil(t, board.CurrentUser)
}

func TestService_LeaderboardLimitIsClamped(t *testing.T) {
	boards := map[string]Leaderboard{
		"sql":    newTestStore(t),
		"memory": NewMemoryLeaderboard(),
	}
	for name, board := range boards {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 12; i++ {
				_, err := board.Submit(fmt.Sprintf("user%02d", i), 10+i)
				require.NoError(t, err)
			}
			svc := NewService(NewEngine(DefaultRules(), nil, seeded(1)), NewSessionStore(nil), board)

			tests := []struct {
				limit int
				want  int
			}{
				{0, DefaultLeaderboardLimit},
				{-5, DefaultLeaderboardLimit},
				{3, 3},
				{1000, 12},
			}
			for _, tt := range tests {
				resp, err := svc.Leaderboard("", tt.limit)
				require.NoError(t, err)
				assert.Len(t, resp.Entries, tt.want, "limit %d", tt.limit)
			}
		})
	}
}

func TestService_Challenge(t *testing.T) {
	svc, clock, _ := newTestService(t)

	_, running := svc.ChallengeStatus("amal")
	assert.False(t, running)
	assert.Nil(t, svc.ChallengeStart("amal"))

	started := svc.StartChallenge("amal")
	assert.Equal(t, 300, started.LimitSeconds)
	assert.Equal(t, 300, started.RemainingSeconds)

	clock.now = clock.now.Add(2 * time.Minute)
	status, running := svc.ChallengeStatus("amal")
	require.True(t, running)
	assert.Equal(t, 180, status.RemainingSeconds)

	clock.now = clock.now.Add(10 * time.Minute)
	status, _ = svc.ChallengeStatus("amal")
	assert.Equal(t, 0, status.RemainingSeconds)

	// An award consumes the challenge.
	_, err := svc.Award(context.Background(), "amal", lexicalRecord(10, 50))
	require.NoError(t, err)
	assert.Nil(t, svc.ChallengeStart("amal"))
}

func newTestRouter(svc *Service) *mux.Router {
	h := NewHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/sessions", h.StartSession).Methods("POST")
	r.HandleFunc("/sessions/current", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/current", h.EndSession).Methods("DELETE")
	r.HandleFunc("/challenge/start", h.StartChallenge).Methods("POST")
	r.HandleFunc("/challenge", h.GetChallenge).Methods("GET")
	r.HandleFunc("/leaderboard", h.GetLeaderboard).Methods("GET")
	return r
}

func do(t *testing.T, r http.Handler, method, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), 1, user))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Sessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := newTestRouter(svc)

	assert.Equal(t, http.StatusUnauthorized, do(t, r, "POST", "/sessions", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "GET", "/sessions/current", "amal").Code)

	rec := do(t, r, "POST", "/sessions", "amal")
	require.Equal(t, http.StatusCreated, rec.Code)
	var st models.SessionState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "amal", st.UserID)
	assert.Equal(t, []string{}, st.Badges)

	assert.Equal(t, http.StatusOK, do(t, r, "GET", "/sessions/current", "amal").Code)
	assert.Equal(t, http.StatusOK, do(t, r, "DELETE", "/sessions/current", "amal").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "DELETE", "/sessions/current", "amal").Code)
}

func TestHandler_ChallengeAndLeaderboard(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := newTestRouter(svc)

	assert.Equal(t, http.StatusNotFound, do(t, r, "GET", "/challenge", "amal").Code)
	assert.Equal(t, http.StatusOK, do(t, r, "POST", "/challenge/start", "amal").Code)
	assert.Equal(t, http.StatusOK, do(t, r, "GET", "/challenge", "amal").Code)

	_, err := svc.Award(context.Background(), "omar", lexicalRecord(10, 50))
	require.NoError(t, err)

	rec := do(t, r, "GET", "/leaderboard?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board models.LeaderboardResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "omar", board.Entries[0].UserID)
	assert.False(t, board.Entries[0].IsCurrentUser)
	assert.Nil(t, board.CurrentUser)
}
