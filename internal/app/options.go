package service

import (
	"strings"
	"time"

	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	"github.com/hotstinder/hotstinder/internal/domain/simulate"
	"github.com/hotstinder/hotstinder/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of matchmaker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the matchmaking queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the persistence backend. Without it Start creates an
// in-memory store that Stop closes.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRandomSource sets the source used by the simulator and the synthetic generator.
func WithRandomSource(src simulate.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithMatchIDFunc overrides the ULID match id generator.
func WithMatchIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newMatchID = fn
		}
	}
}

// WithRatingDelta sets the flat MMR change applied after each match.
func WithRatingDelta(delta int) Option {
	return func(s *Service) {
		if delta >= 0 {
			s.ratingDelta = delta
		}
	}
}

// WithSyntheticLimits caps the admin generate batches.
func WithSyntheticLimits(maxUsers, maxMatches int) Option {
	return func(s *Service) {
		if maxUsers > 0 {
			s.maxSyntheticUsers = maxUsers
		}
		if maxMatches > 0 {
			s.maxSyntheticMatches = maxMatches
		}
	}
}

// WithAdminBattleTags grants the admin role to these BattleTags on login.
// Matching is case-insensitive.
func WithAdminBattleTags(tags []string) Option {
	return func(s *Service) {
		for _, tag := range tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				s.adminTags[strings.ToLower(tag)] = struct{}{}
			}
		}
	}
}

// WithMetricsInterval sets how often session and queue gauges are refreshed.
func WithMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.metricsInterval = d
		}
	}
}
