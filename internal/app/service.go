// Package service wires the matchmaking core to persistence and the
// matchmaking queue. It implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hotstinder/hotstinder/internal/adapters/mq/queue"
	"github.com/hotstinder/hotstinder/internal/adapters/mq/worker"
	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	"github.com/hotstinder/hotstinder/internal/domain/session"
	"github.com/hotstinder/hotstinder/internal/domain/simulate"
	"github.com/hotstinder/hotstinder/internal/domain/synthetic"
	"github.com/hotstinder/hotstinder/pkg/logger"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

const (
	defaultRatingDelta         = 25
	defaultMaxSyntheticUsers   = 100
	defaultMaxSyntheticMatches = 50
)

// Service implements the API dependencies for HotsTinder.
type Service struct {
	mu      sync.RWMutex
	storeMu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	sessions  *session.Tracker
	simulator *simulate.Simulator
	generator *synthetic.Generator

	// Configuration
	workerCount         int
	queueSize           int
	ratingDelta         int
	maxSyntheticUsers   int
	maxSyntheticMatches int
	adminTags           map[string]struct{}
	source              simulate.Source
	newMatchID          func() string
	metricsInterval     time.Duration

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU(),
		queueSize:           10_000,
		ratingDelta:         defaultRatingDelta,
		maxSyntheticUsers:   defaultMaxSyntheticUsers,
		maxSyntheticMatches: defaultMaxSyntheticMatches,
		adminTags:           make(map[string]struct{}),
		source:              simulate.GlobalSource(),
		newMatchID:          func() string { return ulid.Make().String() },
		metricsInterval:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.sessions = session.NewTracker(session.WithOnChange(func(to session.State) {
		metrics.RecordSessionTransition(string(to))
	}))
	s.simulator = simulate.New(simulate.WithSource(s.source))
	s.generator = synthetic.New(synthetic.WithSource(s.source))
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting hotstinder service...")

	// The workers outlive the caller's context; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	if s.store == nil {
		s.storeMu.Lock()
		s.store = repository.NewMemoryStore(runCtx)
		s.storeMu.Unlock()
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory store")
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.NewLobby(0), s, s,
		worker.WithPoolLogger(s.logger.Named("matchmaker")),
	)
	s.pool.Start(runCtx)

	s.wg.Add(1)
	go s.updateGauges(runCtx)

	s.started = true
	s.logger.Info(ctx, "hotstinder service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("ratingDelta", s.ratingDelta),
	)
	return nil
}

// Stop closes the matchmaking queue, waits for the matchmakers and closes
// the store if the service created it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping hotstinder service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "matchmakers did not stop cleanly", logger.Error(err))
	}
	s.cancel()
	s.wg.Wait()

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "error closing store", logger.Error(err))
		}
		s.storeMu.Lock()
		s.store = nil
		s.storeMu.Unlock()
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "hotstinder service stopped")
}

// repo returns the active store. Without WithStore there is none before
// Start or after Stop.
func (s *Service) repo() (repository.Store, error) {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) updateGauges(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateSearchingPlayers(s.sessions.Count()[session.Searching])
			metrics.UpdateLobbySize(s.pool.Lobby().Len())
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"ratingDelta": s.ratingDelta,
	}

	if s.started {
		ctx := context.Background()
		counts := s.sessions.Count()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["lobbySize"] = s.pool.Lobby().Len()
		stats["searching"] = counts[session.Searching]
		stats["found"] = counts[session.Found]
		if store, err := s.repo(); err == nil {
			if users, err := store.CountUsers(ctx); err == nil {
				stats["totalUsers"] = users
				metrics.UpdateUsersTotal(users)
			}
		}

		metrics.UpdateSearchingPlayers(counts[session.Searching])
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
