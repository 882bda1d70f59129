package gamification

import (
	"context"
	"log"
	"time"

	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/models"
)

// Observer is told about every award. Implementations must be safe for
// concurrent use.
type Observer interface {
	PointsAwarded(points int, unlocked []string)
}

type Service struct {
	engine   *Engine
	sessions *SessionStore
	board    Leaderboard
	events   *Store
	observer Observer
	clock    func() time.Time
}

type ServiceOption func(*Service)

// WithEventLog persists every award to the audit trail.
func WithEventLog(store *Store) ServiceOption {
	return func(s *Service) { s.events = store }
}

func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

func NewService(engine *Engine, sessions *SessionStore, board Leaderboard, opts ...ServiceOption) *Service {
	s := &Service{engine: engine, sessions: sessions, board: board, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── Awards (called from the evaluation flow) ────────────

// ChallengeStart reports when the user's running challenge began.
func (s *Service) ChallengeStart(userID string) *time.Time {
	state, ok := s.sessions.Get(userID)
	if !ok {
		return nil
	}
	return state.ChallengeStartedAt
}

// Award applies rec to the user's session, starting one if needed, and merges
// the new cumulative score into the leaderboard. A running challenge is consumed.
func (s *Service) Award(ctx context.Context, userID string, rec *evaluation.Record) (*models.AwardResponse, error) {
	var (
		points    int
		breakdown models.PointsBreakdown
		unlocked  []string
	)
	state, err := s.sessions.Update(userID, func(cur models.SessionState) (models.SessionState, error) {
		var next models.SessionState
		points, next, breakdown, unlocked = s.engine.Award(rec, cur)
		next.ChallengeStartedAt = nil
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	resp := &models.AwardResponse{
		Points:            points,
		Breakdown:         breakdown,
		BadgesUnlocked:    unlocked,
		Session:           state,
		LeaderboardPoints: state.CumulativeScore,
	}
	if resp.BadgesUnlocked == nil {
		resp.BadgesUnlocked = []string{}
	}

	if best, err := s.board.Submit(userID, state.CumulativeScore); err != nil {
		log.Printf("[gamification] failed to update leaderboard for %s: %v", userID, err)
	} else {
		resp.LeaderboardPoints = best
	}

	if s.events != nil {
		if err := s.events.LogAwardEvent(userID, rec.ID, points, breakdown); err != nil {
			log.Printf("[gamification] failed to log award for %s: %v", userID, err)
		}
	}
	if s.observer != nil {
		s.observer.PointsAwarded(points, unlocked)
	}
	return resp, nil
}

// ── Sessions ────────────────────────────────────────────

func (s *Service) StartSession(userID string) models.SessionState {
	return s.sessions.Start(userID)
}

func (s *Service) CurrentSession(userID string) (models.SessionState, error) {
	state, ok := s.sessions.Get(userID)
	if !ok {
		return models.SessionState{}, ErrNoSession
	}
	return state, nil
}

func (s *Service) EndSession(userID string) (models.SessionState, error) {
	return s.sessions.End(userID)
}

// ── Challenge ───────────────────────────────────────────

// StartChallenge (re)starts the timer challenge for the user's session.
func (s *Service) StartChallenge(userID string) models.ChallengeResponse {
	now := s.clock()
	state, _ := s.sessions.Update(userID, func(cur models.SessionState) (models.SessionState, error) {
		cur.ChallengeStartedAt = &now
		return cur, nil
	})
	return s.challengeStatus(*state.ChallengeStartedAt)
}

func (s *Service) ChallengeStatus(userID string) (models.ChallengeResponse, bool) {
	start := s.ChallengeStart(userID)
	if start == nil {
		return models.ChallengeResponse{}, false
	}
	return s.challengeStatus(*start), true
}

func (s *Service) challengeStatus(start time.Time) models.ChallengeResponse {
	limit := s.engine.Rules().ChallengeLimit
	remaining := limit - s.clock().Sub(start)
	if remaining < 0 {
		remaining = 0
	}
	return models.ChallengeResponse{
		StartedAt:        start,
		LimitSeconds:     int(limit / time.Second),
		RemainingSeconds: int(remaining / time.Second),
	}
}

// ── Leaderboard ─────────────────────────────────────────

// Page sizes for leaderboard and award history reads. Out-of-range limits fall
// back to the default or are capped, so every Leaderboard backend sees the same value.
const (
	DefaultLeaderboardLimit = 10
	DefaultHistoryLimit     = 20
	MaxPageLimit            = 100
)

func clampLimit(limit, defaultVal int) int {
	if limit <= 0 {
		return defaultVal
	}
	return min(limit, MaxPageLimit)
}

func (s *Service) Leaderboard(userID string, limit int) (*models.LeaderboardResponse, error) {
	entries, err := s.board.Top(clampLimit(limit, DefaultLeaderboardLimit))
	if err != nil {
		return nil, err
	}

	resp := &models.LeaderboardResponse{Entries: entries}
	for i := range entries {
		if entries[i].UserID == userID {
			entries[i].IsCurrentUser = true
			e := entries[i]
			resp.CurrentUser = &e
		}
	}
	if resp.CurrentUser == nil && userID != "" {
		e, ok, err := s.board.Get(userID)
		if err != nil {
			return nil, err
		}
		if ok {
			e.IsCurrentUser = true
			resp.CurrentUser = &e
		}
	}
	return resp, nil
}

func (s *Service) AwardHistory(userID string, limit int) ([]models.AwardEvent, error) {
	if s.events == nil {
		return []models.AwardEvent{}, nil
	}
	return s.events.ListAwardEvents(userID, clampLimit(limit, DefaultHistoryLimit))
}
