// Package queue holds matchmaking tickets between the HTTP layer and the
// matchmaker workers.
//
// Enqueue never blocks: a full queue rejects the ticket so the caller can
// answer with backpressure instead of stalling the request.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Ticket is one player's request to be matched.
type Ticket struct {
	Player     types.Player
	EnqueuedAt time.Time
}

// UserID returns the id of the player behind the ticket.
func (t Ticket) UserID() string { return t.Player.ID }

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a ticket. It returns false if the queue is full or closed.
	Enqueue(ctx context.Context, t Ticket) bool

	// Dequeue returns a channel that receives tickets as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Ticket

	// Len returns the number of waiting tickets.
	Len(ctx context.Context) int

	// Close stops accepting tickets. Pending tickets can still be drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	tickets  chan Ticket
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tickets = make(chan Ticket, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Capacity returns the maximum number of waiting tickets.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

func (q *InMemoryQueue) Enqueue(ctx context.Context, t Ticket) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.tickets <- t:
		metrics.RecordQueueEnqueue()
		q.publishSize()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Ticket {
	out := make(chan Ticket)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.tickets:
				if !ok {
					return
				}
				select {
				case out <- t:
					metrics.RecordQueueDequeue()
					q.publishSize()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.tickets)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tickets)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishSize() {
	size := len(q.tickets)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
