package worker

import (
	"sync"

	"github.com/hotstinder/hotstinder/internal/adapters/mq/queue"
	"github.com/hotstinder/hotstinder/internal/domain/balance"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

// Lobby collects tickets until a full roster is available. It is shared by
// every worker in a pool and is safe for concurrent use.
type Lobby struct {
	mu      sync.Mutex
	waiting []queue.Ticket
	size    int
}

// NewLobby creates a lobby that releases rosters of size players.
// A non-positive size means a full match roster.
func NewLobby(size int) *Lobby {
	if size < 1 {
		size = balance.RosterSize
	}
	return &Lobby{size: size}
}

// Add places t in the lobby and returns a full roster once one is available.
// Tickets whose user is no longer searching are dropped first, and a user
// already waiting is not added twice.
func (l *Lobby) Add(t queue.Ticket, active func(userID string) bool) ([]queue.Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(active)
	if !l.containsLocked(t.UserID()) {
		l.waiting = append(l.waiting, t)
	}

	if len(l.waiting) < l.size {
		metrics.UpdateLobbySize(len(l.waiting))
		return nil, false
	}

	roster := make([]queue.Ticket, l.size)
	copy(roster, l.waiting)
	l.waiting = append(l.waiting[:0], l.waiting[l.size:]...)
	metrics.UpdateLobbySize(len(l.waiting))
	return roster, true
}

// Requeue puts tickets back at the front of the lobby, in order.
func (l *Lobby) Requeue(tickets []queue.Ticket) {
	l.mu.Lock()
	defer l.mu.Unlock()

	front := make([]queue.Ticket, 0, len(tickets)+len(l.waiting))
	for _, t := range tickets {
		if !l.containsLocked(t.UserID()) {
			front = append(front, t)
		}
	}
	l.waiting = append(front, l.waiting...)
	metrics.UpdateLobbySize(len(l.waiting))
}

// Remove drops the user's ticket if present.
func (l *Lobby) Remove(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, t := range l.waiting {
		if t.UserID() == userID {
			l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
			metrics.UpdateLobbySize(len(l.waiting))
			return true
		}
	}
	return false
}

// Len returns the number of waiting tickets.
func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiting)
}

// Contains reports whether the user is waiting in the lobby.
func (l *Lobby) Contains(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.containsLocked(userID)
}

func (l *Lobby) containsLocked(userID string) bool {
	for _, t := range l.waiting {
		if t.UserID() == userID {
			return true
		}
	}
	return false
}

func (l *Lobby) pruneLocked(active func(userID string) bool) {
	if active == nil {
		return
	}
	kept := l.waiting[:0]
	for _, t := range l.waiting {
		if active(t.UserID()) {
			kept = append(kept, t)
		}
	}
	clear(l.waiting[len(kept):])
	l.waiting = kept
}
