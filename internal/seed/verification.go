package seed

import (
	"context"
	"fmt"

	"github.com/hotstinder/hotstinder/pkg/logger"
)

// verifyLeaderboard checks ordering and competition ranks of the first page.
func verifyLeaderboard(entries []Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("top entry %s has rank %d", e.UserID, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.MMR > prev.MMR:
			return fmt.Errorf("leaderboard not sorted: entry %d has higher mmr than entry %d", i, i-1)
		case e.MMR == prev.MMR && e.UserID <= prev.UserID:
			return fmt.Errorf("leaderboard tie not ordered by id at entry %d", i)
		case e.MMR == prev.MMR && e.Rank != prev.Rank:
			return fmt.Errorf("tied entries %d and %d have different ranks", i-1, i)
		case e.MMR < prev.MMR && e.Rank != i+1:
			return fmt.Errorf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
		if e.WinRate < 0 || e.WinRate > 1 {
			return fmt.Errorf("entry %s has win rate %.3f", e.UserID, e.WinRate)
		}
	}
	return nil
}

// displayTopPlayers logs the head of the leaderboard.
func displayTopPlayers(ctx context.Context, entries []Entry, verbose bool) {
	log := logger.Get().Named("seed")
	n := min(10, len(entries))
	for _, e := range entries[:n] {
		log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player", e.DisplayName),
			logger.Int("mmr", e.MMR),
			logger.Int("wins", e.Wins),
			logger.Int("losses", e.Losses))
	}

	if verbose && len(entries) > 0 {
		sum := 0
		for _, e := range entries {
			sum += e.MMR
		}
		log.Debug(ctx, "mmr statistics",
			logger.Float64("average", float64(sum)/float64(len(entries))),
			logger.Int("maximum", entries[0].MMR),
			logger.Int("minimum", entries[len(entries)-1].MMR))
	}
}
