package gamification

import (
	"sort"
	"sync"

	"github.com/translation-arena/backend/internal/models"
)

// Leaderboard records each user's best cumulative score. Submit never lowers an
// entry.
type Leaderboard interface {
	// Submit merges points into the user's entry and returns the recorded best.
	Submit(userID string, points int) (int, error)
	Top(limit int) ([]models.LeaderboardEntry, error)
	// Get returns the user's entry with its rank, and false when the user has none.
	Get(userID string) (models.LeaderboardEntry, bool, error)
}

// MemoryLeaderboard is an in-process Leaderboard. Writes to different users do
// not block each other; writes to one user are serialized by its entry lock.
type MemoryLeaderboard struct {
	entries sync.Map // user id -> *boardEntry
}

type boardEntry struct {
	mu     sync.Mutex
	points int
}

func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{}
}

func (m *MemoryLeaderboard) Submit(userID string, points int) (int, error) {
	v, _ := m.entries.LoadOrStore(userID, &boardEntry{})
	e := v.(*boardEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if points > e.points {
		e.points = points
	}
	return e.points, nil
}

func (m *MemoryLeaderboard) snapshot() []models.LeaderboardEntry {
	var out []models.LeaderboardEntry
	m.entries.Range(func(k, v any) bool {
		e := v.(*boardEntry)
		e.mu.Lock()
		out = append(out, models.LeaderboardEntry{UserID: k.(string), Points: e.points})
		e.mu.Unlock()
		return true
	})
	sortEntries(out)
	return out
}

func (m *MemoryLeaderboard) Top(limit int) ([]models.LeaderboardEntry, error) {
	all := m.snapshot()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryLeaderboard) Get(userID string) (models.LeaderboardEntry, bool, error) {
	for _, e := range m.snapshot() {
		if e.UserID == userID {
			return e, true, nil
		}
	}
	return models.LeaderboardEntry{}, false, nil
}

// sortEntries orders by points descending, then user id, and assigns ranks.
// Tied scores share a rank.
func sortEntries(entries []models.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
}
