package gamification

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/translation-arena/backend/internal/models"
)

// Store persists the leaderboard and the award audit trail. It satisfies
// Leaderboard.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

// ── Leaderboard ─────────────────────────────────────────

// Submit upserts the user's entry, keeping the larger of the stored and the
// offered points. The row lock serializes concurrent writers for one user.
func (s *Store) Submit(userID string, points int) (int, error) {
	_, err := s.db.Exec(
		`INSERT INTO leaderboard (user_id, points, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET points = excluded.points, updated_at = excluded.updated_at
		 WHERE excluded.points > leaderboard.points`,
		userID, max(points, 0), s.clock().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert leaderboard: %w", err)
	}

	var best int
	if err := s.db.QueryRow(`SELECT points FROM leaderboard WHERE user_id = $1`, userID).Scan(&best); err != nil {
		return 0, fmt.Errorf("get leaderboard points: %w", err)
	}
	return best, nil
}

func (s *Store) Top(limit int) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT user_id, points FROM leaderboard
		 ORDER BY points DESC, user_id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) Get(userID string) (models.LeaderboardEntry, bool, error) {
	e := models.LeaderboardEntry{UserID: userID}
	err := s.db.QueryRow(
		`SELECT l.points,
		        (SELECT COUNT(*) FROM leaderboard o WHERE o.points > l.points) + 1
		 FROM leaderboard l WHERE l.user_id = $1`,
		userID,
	).Scan(&e.Points, &e.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LeaderboardEntry{}, false, nil
	}
	if err != nil {
		return models.LeaderboardEntry{}, false, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return e, true, nil
}

// ── Award Events ────────────────────────────────────────

func (s *Store) LogAwardEvent(userID, evaluationID string, points int, metadata interface{}) error {
	var meta *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal award metadata: %w", err)
		}
		str := string(b)
		meta = &str
	}
	_, err := s.db.Exec(
		`INSERT INTO award_events (user_id, evaluation_id, points, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, evaluationID, points, meta, s.clock().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert award event: %w", err)
	}
	return nil
}

func (s *Store) ListAwardEvents(userID string, limit int) ([]models.AwardEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, evaluation_id, points, metadata, created_at
		 FROM award_events WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list award events: %w", err)
	}
	defer rows.Close()

	events := []models.AwardEvent{}
	for rows.Next() {
		var ev models.AwardEvent
		var meta sql.NullString
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.EvaluationID, &ev.Points, &meta, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan award event: %w", err)
		}
		ev.Metadata = meta.String
		events = append(events, ev)
	}
	return events, rows.Err()
}
