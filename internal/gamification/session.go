package gamification

import (
	"errors"
	"sync"
	"time"

	"github.com/translation-arena/backend/internal/models"
)

var ErrNoSession = errors.New("no active session")

// SessionStore owns the per-user session state. Updates to one user are
// serialized; different users never contend beyond the map lookup.
type SessionStore struct {
	mu    sync.RWMutex
	slots map[string]*slot
	clock func() time.Time
}

type slot struct {
	mu    sync.Mutex
	state models.SessionState
	ended bool
}

func NewSessionStore(clock func() time.Time) *SessionStore {
	if clock == nil {
		clock = time.Now
	}
	return &SessionStore{slots: make(map[string]*slot), clock: clock}
}

func (s *SessionStore) newSlot(userID string) *slot {
	return &slot{state: models.SessionState{UserID: userID, Badges: []string{}, StartedAt: s.clock()}}
}

// Start begins a fresh session, discarding any running one.
func (s *SessionStore) Start(userID string) models.SessionState {
	fresh := s.newSlot(userID)
	s.mu.Lock()
	old := s.slots[userID]
	s.slots[userID] = fresh
	s.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.ended = true
		old.mu.Unlock()
	}
	return fresh.state.Clone()
}

func (s *SessionStore) Get(userID string) (models.SessionState, bool) {
	s.mu.RLock()
	sl := s.slots[userID]
	s.mu.RUnlock()
	if sl == nil {
		return models.SessionState{}, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.ended {
		return models.SessionState{}, false
	}
	return sl.state.Clone(), true
}

func (s *SessionStore) slotFor(userID string) *slot {
	s.mu.RLock()
	sl := s.slots[userID]
	s.mu.RUnlock()
	if sl != nil {
		return sl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl = s.slots[userID]; sl == nil {
		sl = s.newSlot(userID)
		s.slots[userID] = sl
	}
	return sl
}

// Update applies fn to the user's session as one atomic read-modify-write,
// starting a session if none is running. The state is kept unchanged when fn
// returns an error.
func (s *SessionStore) Update(userID string, fn func(models.SessionState) (models.SessionState, error)) (models.SessionState, error) {
	for {
		sl := s.slotFor(userID)
		sl.mu.Lock()
		if sl.ended {
			// Replaced or ended while we waited; retry against the current slot.
			sl.mu.Unlock()
			continue
		}
		next, err := fn(sl.state.Clone())
		if err == nil {
			sl.state = next.Clone()
		}
		out := sl.state.Clone()
		sl.mu.Unlock()
		return out, err
	}
}

// End tears the session down and returns its final state.
func (s *SessionStore) End(userID string) (models.SessionState, error) {
	s.mu.Lock()
	sl := s.slots[userID]
	delete(s.slots, userID)
	s.mu.Unlock()
	if sl == nil {
		return models.SessionState{}, ErrNoSession
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.ended = true
	return sl.state.Clone(), nil
}
