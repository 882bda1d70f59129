package models

import "time"

// ── Session State ─────────────────────────────────────────

// SessionState is the per-user game state for one logical session.
// It is created zeroed at session start and only mutated by the gamification engine.
type SessionState struct {
	UserID             string     `json:"user_id"`
	CumulativeScore    int        `json:"cumulative_score"`
	StreakCount        int        `json:"streak_count"`
	Badges             []string   `json:"badges"`
	AttemptCount       int        `json:"attempt_count"`
	ChallengeStartedAt *time.Time `json:"challenge_started_at,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
}

// HasBadge reports whether the badge was already earned in this session.
func (s SessionState) HasBadge(name string) bool {
	for _, b := range s.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can never alias the stored badge slice.
func (s SessionState) Clone() SessionState {
	c := s
	c.Badges = append([]string(nil), s.Badges...)
	if s.ChallengeStartedAt != nil {
		t := *s.ChallengeStartedAt
		c.ChallengeStartedAt = &t
	}
	return c
}

// ── Award Types ───────────────────────────────────────────

// PointsBreakdown lists every integer contribution to one award.
type PointsBreakdown struct {
	Base           int  `json:"base"`
	RandomBonus    int  `json:"random_bonus"`
	Contradictions int  `json:"contradictions"`
	LiteraryLoss   int  `json:"literary_loss"`
	Stylistic      int  `json:"stylistic"`
	TimeBonus      int  `json:"time_bonus"`
	StreakBonus    int  `json:"streak_bonus"`
	Successful     bool `json:"successful"`
	Total          int  `json:"total"`
}

type AwardResponse struct {
	Points            int             `json:"points"`
	Breakdown         PointsBreakdown `json:"breakdown"`
	BadgesUnlocked    []string        `json:"badges_unlocked"`
	Session           SessionState    `json:"session"`
	LeaderboardPoints int             `json:"leaderboard_points"`
}

// AwardEvent is one persisted award, the audit trail behind the leaderboard.
type AwardEvent struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	EvaluationID string    `json:"evaluation_id"`
	Points       int       `json:"points"`
	Metadata     string    `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ── Leaderboard ───────────────────────────────────────────

// LeaderboardEntry holds a user's best observed cumulative score.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Points        int    `json:"points"`
	IsCurrentUser bool   `json:"is_current_user"`
}

type LeaderboardResponse struct {
	Entries     []LeaderboardEntry `json:"entries"`
	CurrentUser *LeaderboardEntry  `json:"current_user,omitempty"`
}

// ── Challenge ─────────────────────────────────────────────

type ChallengeResponse struct {
	StartedAt        time.Time `json:"started_at"`
	LimitSeconds     int       `json:"limit_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
}
