package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/hotstinder/hotstinder/internal/adapters/mq/queue"
	"github.com/hotstinder/hotstinder/internal/adapters/mq/worker"
	"github.com/hotstinder/hotstinder/internal/domain/types"
)

type mockQueue struct {
	ch chan queue.Ticket
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan queue.Ticket, 64)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Ticket { return mq.ch }

func (mq *mockQueue) Close() error {
	close(mq.ch)
	return nil
}

type mockSessions struct {
	mu        sync.RWMutex
	searching map[string]bool
}

func newMockSessions() *mockSessions {
	return &mockSessions{searching: map[string]bool{}}
}

func (m *mockSessions) IsSearching(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searching[userID]
}

func (m *mockSessions) set(userID string, searching bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searching[userID] = searching
}

type mockCompleter struct {
	mu      sync.Mutex
	rosters [][]queue.Ticket
	requeue int
	err     error
}

func (m *mockCompleter) CompleteLobby(_ context.Context, tickets []queue.Ticket) ([]queue.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters = append(m.rosters, tickets)
	if m.requeue > 0 {
		return tickets[:m.requeue], nil
	}
	return nil, m.err
}

func (m *mockCompleter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rosters)
}

func ticket(id string) queue.Ticket {
	return queue.Ticket{Player: types.Player{ID: id, SkillRating: 1500}, EnqueuedAt: time.Now()}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestLobby(t *testing.T) {
	convey.Convey("Given a lobby of ten", t, func() {
		lobby := worker.NewLobby(0)
		active := func(string) bool { return true }

		convey.Convey("When nine players join", func() {
			for i := 0; i < 9; i++ {
				_, full := lobby.Add(ticket(fmt.Sprintf("u%d", i)), active)
				convey.So(full, convey.ShouldBeFalse)
			}

			convey.Convey("Then a duplicate does not complete the roster", func() {
				_, full := lobby.Add(ticket("u0"), active)
				convey.So(full, convey.ShouldBeFalse)
				convey.So(lobby.Len(), convey.ShouldEqual, 9)
			})

			convey.Convey("Then the tenth releases a roster in arrival order", func() {
				roster, full := lobby.Add(ticket("u9"), active)
				convey.So(full, convey.ShouldBeTrue)
				convey.So(roster, convey.ShouldHaveLength, 10)
				convey.So(roster[0].UserID(), convey.ShouldEqual, "u0")
				convey.So(roster[9].UserID(), convey.ShouldEqual, "u9")
				convey.So(lobby.Len(), convey.ShouldEqual, 0)
			})

			convey.Convey("Then players who left are pruned", func() {
				_, full := lobby.Add(ticket("u9"), func(id string) bool { return id != "u3" })
				convey.So(full, convey.ShouldBeFalse)
				convey.So(lobby.Contains("u3"), convey.ShouldBeFalse)
				convey.So(lobby.Len(), convey.ShouldEqual, 9)
			})

			convey.Convey("Then Remove and Requeue keep order", func() {
				convey.So(lobby.Remove("u4"), convey.ShouldBeTrue)
				convey.So(lobby.Remove("u4"), convey.ShouldBeFalse)
				lobby.Requeue([]queue.Ticket{ticket("u4"), ticket("u0")})
				convey.So(lobby.Len(), convey.ShouldEqual, 9)

				roster, full := lobby.Add(ticket("u9"), active)
				convey.So(full, convey.ShouldBeTrue)
				convey.So(roster[0].UserID(), convey.ShouldEqual, "u4")
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool draining a queue", t, func() {
		q := newMockQueue()
		sessions := newMockSessions()
		completer := &mockCompleter{}
		pool := worker.NewPool(3, q, nil, sessions, completer)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When twenty searching players queue", func() {
			for i := 0; i < 20; i++ {
				id := fmt.Sprintf("p%d", i)
				sessions.set(id, true)
				q.ch <- ticket(id)
			}

			convey.Convey("Then two rosters are completed", func() {
				convey.So(waitFor(func() bool { return completer.count() == 2 }), convey.ShouldBeTrue)
				convey.So(pool.Lobby().Len(), convey.ShouldEqual, 0)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a ticket's player already left", func() {
			sessions.set("gone", false)
			q.ch <- ticket("gone")
			sessions.set("here", true)
			q.ch <- ticket("here")

			convey.Convey("Then only the searching player waits in the lobby", func() {
				convey.So(waitFor(func() bool { return pool.Lobby().Len() == 1 }), convey.ShouldBeTrue)
				convey.So(pool.Lobby().Contains("gone"), convey.ShouldBeFalse)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a completer that hands players back", t, func() {
		q := newMockQueue()
		sessions := newMockSessions()
		completer := &mockCompleter{requeue: 4}
		pool := worker.NewPool(1, q, worker.NewLobby(0), sessions, completer)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("p%d", i)
			sessions.set(id, true)
			q.ch <- ticket(id)
		}

		convey.Convey("Then the requeued players wait in the lobby", func() {
			convey.So(waitFor(func() bool { return pool.Lobby().Len() == 4 }), convey.ShouldBeTrue)
			convey.So(pool.Lobby().Contains("p0"), convey.ShouldBeTrue)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a completer that fails", t, func() {
		q := newMockQueue()
		sessions := newMockSessions()
		completer := &mockCompleter{err: errors.New("boom")}
		pool := worker.NewPool(1, q, nil, sessions, completer)
		pool.Start(context.Background())

		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("p%d", i)
			sessions.set(id, true)
			q.ch <- ticket(id)
		}

		convey.Convey("Then the worker keeps running", func() {
			convey.So(waitFor(func() bool { return completer.count() == 1 }), convey.ShouldBeTrue)
			sessions.set("late", true)
			q.ch <- ticket("late")
			convey.So(waitFor(func() bool { return pool.Lobby().Len() == 1 }), convey.ShouldBeTrue)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a pool that never started", t, func() {
		pool := worker.NewPool(0, newMockQueue(), nil, newMockSessions(), &mockCompleter{})

		convey.Convey("Then shutdown returns immediately", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
