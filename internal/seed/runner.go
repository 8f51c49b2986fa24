// Package seed populates a running HotsTinder instance through its admin API
// and checks the resulting leaderboard.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hotstinder/hotstinder/pkg/logger"
)

// ErrNoToken is returned when neither a token nor a secret is configured.
var ErrNoToken = errors.New("seed: an admin token or jwt secret is required")

// Run executes the complete seeding run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}
	log := logger.Get().Named("seed")

	token, err := ResolveToken(config)
	if err != nil {
		return stats, err
	}

	log.Info(ctx, "starting hotstinder seed",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.Users),
		logger.Int("matches", config.Matches),
		logger.Bool("useRealUsers", config.UseRealUsers),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, token, config.Timeout)

	// Step 1: Check service health
	if err := client.checkHealth(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create synthetic users
	if err := createUsers(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("user generation failed: %w", err)
	}

	// Step 3: Generate matches
	if err := generateMatches(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("match generation failed: %w", err)
	}

	// Step 4: Verify the leaderboard
	topN := min(max(config.TopN, 1), MaxTopN)
	entries, err := client.leaderboard(ctx, topN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(entries)
	if err := verifyLeaderboard(entries); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}
	displayTopPlayers(ctx, entries, config.Verbose)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "seed completed successfully")
	return stats, nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, matchesPerSecond float64

	if stats.MatchesRequested > 0 {
		successRate = float64(stats.MatchesCreated) / float64(stats.MatchesRequested) * PercentFactor
	}
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesCreated) / stats.Duration.Seconds()
	}

	logger.Get().Named("seed").Info(ctx, "final statistics",
		logger.Int("usersRequested", stats.UsersRequested),
		logger.Int("usersCreated", stats.UsersCreated),
		logger.Int("matchesRequested", stats.MatchesRequested),
		logger.Int("matchesCreated", stats.MatchesCreated),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}
