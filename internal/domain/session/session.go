// Package session tracks each user's matchmaking state.
//
//	Idle -> Searching -> Found -> Resolved
//	           |           |
//	           +-----------+---> Cancelled
//
// Resolved and Cancelled sessions may search again.
package session

import (
	"fmt"
	"sync"
	"time"
)

// State is a matchmaking session state.
type State string

const (
	Idle      State = "idle"
	Searching State = "searching"
	Found     State = "found"
	Resolved  State = "resolved"
	Cancelled State = "cancelled"
)

var transitions = map[State][]State{
	Idle:      {Searching},
	Searching: {Found, Cancelled},
	Found:     {Resolved, Cancelled},
	Resolved:  {Searching},
	Cancelled: {Searching},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Session is a snapshot of one user's matchmaking state.
type Session struct {
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	MatchID   string    `json:"match_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker holds sessions for all users. It is safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
	onChange func(to State)
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the user's session. Unknown users are Idle.
func (t *Tracker) Get(userID string) Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.sessions[userID]; ok {
		return *s
	}
	return Session{UserID: userID, State: Idle}
}

// Transition moves the user's session to the given state and returns the
// previous snapshot. The match id is recorded when moving to Resolved and
// cleared when searching again.
func (t *Tracker) Transition(userID string, to State, matchID string) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.transitionLocked(userID, to, matchID)
}

// TransitionIf moves the session only when it is currently in state from.
func (t *Tracker) TransitionIf(userID string, from, to State) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.getLocked(userID)
	if prev.State != from {
		return prev, fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidTransition, userID, prev.State, from)
	}
	return t.transitionLocked(userID, to, "")
}

// Restore puts back a previous snapshot without checking transitions. It is
// used to roll back a transition whose side effect failed.
func (t *Tracker) Restore(prev Session) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev.State == Idle && prev.MatchID == "" {
		delete(t.sessions, prev.UserID)
		return
	}
	s := prev
	t.sessions[prev.UserID] = &s
}

// Count returns the number of sessions in each state, Idle excluded.
func (t *Tracker) Count() map[State]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[State]int, len(transitions))
	for _, s := range t.sessions {
		counts[s.State]++
	}
	return counts
}

// Forget drops the user's session, returning them to Idle.
func (t *Tracker) Forget(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sessions, userID)
}

func (t *Tracker) getLocked(userID string) Session {
	if s, ok := t.sessions[userID]; ok {
		return *s
	}
	return Session{UserID: userID, State: Idle}
}

func (t *Tracker) transitionLocked(userID string, to State, matchID string) (Session, error) {
	prev := t.getLocked(userID)
	if !CanTransition(prev.State, to) {
		return prev, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.State, to)
	}

	next := &Session{UserID: userID, State: to, MatchID: prev.MatchID, UpdatedAt: t.now()}
	switch to {
	case Searching:
		next.MatchID = ""
	case Resolved:
		next.MatchID = matchID
	}
	t.sessions[userID] = next

	if t.onChange != nil {
		t.onChange(to)
	}
	return prev, nil
}
