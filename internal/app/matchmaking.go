package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hotstinder/hotstinder/internal/adapters/mq/queue"
	"github.com/hotstinder/hotstinder/internal/domain/balance"
	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/session"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/logger"
)

// JoinQueue moves the user to Searching and enqueues a ticket for the
// matchmakers. When the queue is full the session is rolled back.
func (s *Service) JoinQueue(ctx context.Context, userID string) (session.Session, error) {
	if !s.isStarted() {
		return session.Session{}, ErrNotStarted
	}

	store, err := s.repo()
	if err != nil {
		return session.Session{}, err
	}
	u, err := store.GetUser(ctx, userID)
	if err != nil {
		return session.Session{}, fmt.Errorf("join queue: %w", err)
	}

	prev, err := s.sessions.Transition(userID, session.Searching, "")
	if err != nil {
		return session.Session{}, fmt.Errorf("join queue: %w", err)
	}

	if !s.queue.Enqueue(ctx, queue.Ticket{Player: u.Player(), EnqueuedAt: time.Now()}) {
		s.sessions.Restore(prev)
		return session.Session{}, ErrQueueFull
	}

	s.logger.Debug(ctx, "user joined queue", logger.String("userID", userID), logger.Int("mmr", u.MMR))
	return s.sessions.Get(userID), nil
}

// LeaveQueue cancels a search. The user's ticket is dropped from the lobby
// or ignored when it is dequeued.
func (s *Service) LeaveQueue(ctx context.Context, userID string) (session.Session, error) {
	if _, err := s.sessions.TransitionIf(userID, session.Searching, session.Cancelled); err != nil {
		return session.Session{}, fmt.Errorf("leave queue: %w", err)
	}
	if s.isStarted() {
		s.pool.Lobby().Remove(userID)
	}
	s.logger.Debug(ctx, "user left queue", logger.String("userID", userID))
	return s.sessions.Get(userID), nil
}

// QueueStatus returns the user's matchmaking session.
func (s *Service) QueueStatus(_ context.Context, userID string) session.Session {
	return s.sessions.Get(userID)
}

// IsSearching reports whether the user is still waiting for a match.
func (s *Service) IsSearching(userID string) bool {
	return s.sessions.Get(userID).State == session.Searching
}

// CompleteLobby claims every ticket's session and plays the match. If some
// players left before they could be claimed, the claimed ones are restored
// to Searching and returned for requeueing.
func (s *Service) CompleteLobby(ctx context.Context, tickets []queue.Ticket) ([]queue.Ticket, error) {
	claimed := make([]queue.Ticket, 0, len(tickets))
	prevs := make([]session.Session, 0, len(tickets))
	for _, t := range tickets {
		prev, err := s.sessions.TransitionIf(t.UserID(), session.Searching, session.Found)
		if err != nil {
			continue
		}
		claimed = append(claimed, t)
		prevs = append(prevs, prev)
	}

	if len(claimed) < balance.RosterSize {
		for _, prev := range prevs {
			s.sessions.Restore(prev)
		}
		return claimed, nil
	}

	players := make([]types.Player, len(claimed))
	for i, t := range claimed {
		players[i] = t.Player
	}

	m, err := s.CompleteMatch(ctx, players, model.SourceQueue)
	if err != nil {
		for _, t := range claimed {
			if _, terr := s.sessions.Transition(t.UserID(), session.Cancelled, ""); terr != nil {
				s.logger.Warn(ctx, "cancel session", logger.String("userID", t.UserID()), logger.Error(terr))
			}
		}
		return nil, err
	}

	for _, t := range claimed {
		if _, err := s.sessions.Transition(t.UserID(), session.Resolved, m.ID); err != nil {
			s.logger.Warn(ctx, "resolve session", logger.String("userID", t.UserID()), logger.Error(err))
		}
	}
	s.logger.Info(ctx, "queue match created", logger.String("matchID", m.ID), logger.String("map", m.Map))
	return nil, nil
}
