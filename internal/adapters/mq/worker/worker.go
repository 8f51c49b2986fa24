// Package worker runs the matchmakers that drain the ticket queue into a
// shared lobby and hand full rosters to the match pipeline.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/hotstinder/hotstinder/internal/adapters/mq/queue"
	"github.com/hotstinder/hotstinder/pkg/logger"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

const defaultShutdownTimeout = 30 * time.Second

// Queue defines how workers receive tickets.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Ticket
}

// SessionChecker reports whether a user is still searching for a match.
type SessionChecker interface {
	IsSearching(userID string) bool
}

// Completer turns a full roster into a match.
type Completer interface {
	// CompleteLobby claims the tickets' sessions and runs the match pipeline.
	// Tickets in requeue were claimed but could not be matched because others
	// left in the meantime; they go back to the lobby.
	CompleteLobby(ctx context.Context, tickets []queue.Ticket) (requeue []queue.Ticket, err error)
}

// Worker processes tickets until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker after the ticket in hand is processed.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker moves tickets from the queue into the lobby.
type InMemoryWorker struct {
	queue     Queue
	lobby     *Lobby
	sessions  SessionChecker
	completer Completer
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, lobby *Lobby, sessions SessionChecker, completer Completer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		lobby:     lobby,
		sessions:  sessions,
		completer: completer,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tickets := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tickets:
			if !ok {
				return
			}
			if err := w.processTicket(ctx, t); err != nil {
				w.logger.Error(ctx, "error processing ticket", logger.Error(err))
			}
		}
	}
}

func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) processTicket(ctx context.Context, t queue.Ticket) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !w.sessions.IsSearching(t.UserID()) {
		w.logger.Debug(ctx, "dropping stale ticket", logger.String("user_id", t.UserID()))
		return nil
	}

	roster, full := w.lobby.Add(t, w.sessions.IsSearching)
	if !full {
		return nil
	}

	requeue, err := w.completer.CompleteLobby(ctx, roster)
	if len(requeue) > 0 {
		w.lobby.Requeue(requeue)
		w.logger.Info(ctx, "lobby incomplete, players requeued", logger.Int("requeued", len(requeue)))
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "match_failed")
		return fmt.Errorf("complete lobby: %w", err)
	}
	return nil
}

// Pool manages multiple workers sharing one lobby.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	lobby           *Lobby
	shutdownTimeout time.Duration
	started         bool
	logger          logger.Logger
}

// NewPool creates workerCount workers. A non-positive count uses one per CPU.
func NewPool(workerCount int, q Queue, lobby *Lobby, sessions SessionChecker, completer Completer, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if lobby == nil {
		lobby = NewLobby(0)
	}

	pool := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           q,
		lobby:           lobby,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(pool)
	}

	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(q, lobby, sessions, completer,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(pool.logger),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Lobby returns the lobby shared by the pool's workers.
func (p *Pool) Lobby() *Lobby { return p.lobby }

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue if it can be closed, then waits for the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	metrics.UpdateWorkerCount(0)
	return firstErr
}
