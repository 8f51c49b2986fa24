package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	"github.com/hotstinder/hotstinder/internal/domain/balance"
	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/logger"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

// BatchResult summarises a synthetic match batch.
type BatchResult struct {
	Requested int      `json:"requested"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	MatchIDs  []string `json:"match_ids"`
}

// CompleteMatch balances ten players, simulates the match and persists it
// together with the rating changes.
func (s *Service) CompleteMatch(ctx context.Context, players []types.Player, source string) (model.Match, error) {
	start := time.Now()

	store, err := s.repo()
	if err != nil {
		return model.Match{}, err
	}
	a, b, err := balance.Balance(players)
	if err != nil {
		return model.Match{}, fmt.Errorf("balance teams: %w", err)
	}
	outcome := s.simulator.Simulate(a, b)

	m := model.Match{
		ID:              s.newMatchID(),
		Source:          source,
		Map:             outcome.Map,
		DurationSeconds: outcome.DurationSeconds,
		WinningTeam:     outcome.WinningTeam,
		WinProbability:  outcome.WinProbability,
		BlueAverageMMR:  a.AverageSkillRating,
		RedAverageMMR:   b.AverageSkillRating,
		Players:         make([]model.MatchPlayer, 0, balance.RosterSize),
	}
	for team, side := range []types.Team{a, b} {
		for _, p := range side.Members {
			pick := outcome.Assignments[p.ID]
			m.Players = append(m.Players, model.MatchPlayer{
				UserID:      p.ID,
				DisplayName: p.DisplayName,
				Team:        team,
				Hero:        pick.Hero,
				Role:        string(pick.Role),
				Won:         team == outcome.WinningTeam,
			})
		}
	}

	if err := store.RecordMatch(ctx, &m, s.ratingDelta); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.RecordPersistConflict()
		}
		return model.Match{}, fmt.Errorf("record match %s: %w", m.ID, err)
	}

	metrics.RecordMatchCreated(source, math.Abs(a.AverageSkillRating-b.AverageSkillRating))
	metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "match recorded",
		logger.String("matchID", m.ID),
		logger.String("source", source),
		logger.String("map", m.Map),
		logger.String("winner", types.TeamName(m.WinningTeam)),
		logger.Float64("winProbability", m.WinProbability),
	)
	return m, nil
}

// GenerateMatches creates count matches one after another. With useRealUsers
// each roster is ten random stored users, otherwise ten fresh synthetic
// accounts. A match that fails is logged and skipped; the rest of the batch
// continues.
func (s *Service) GenerateMatches(ctx context.Context, count int, useRealUsers bool) (BatchResult, error) {
	if count < 1 || count > s.maxSyntheticMatches {
		return BatchResult{}, fmt.Errorf("%w: count must be between 1 and %d", ErrLimitExceeded, s.maxSyntheticMatches)
	}

	store, err := s.repo()
	if err != nil {
		return BatchResult{}, err
	}

	source := model.SourceSynthetic
	if useRealUsers {
		source = model.SourceRoster
		available, err := store.CountUsers(ctx)
		if err != nil {
			return BatchResult{}, fmt.Errorf("count users: %w", err)
		}
		if available < balance.RosterSize {
			return BatchResult{}, &RosterError{Available: available, Required: balance.RosterSize}
		}
	}

	result := BatchResult{Requested: count, MatchIDs: make([]string, 0, count)}
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		players, err := s.roster(ctx, useRealUsers)
		if err == nil {
			var m model.Match
			if m, err = s.CompleteMatch(ctx, players, source); err == nil {
				result.Created++
				result.MatchIDs = append(result.MatchIDs, m.ID)
				continue
			}
		}

		result.Failed++
		metrics.RecordMatchBatchFailure(failureReason(err))
		s.logger.Warn(ctx, "skipping failed match",
			logger.Int("index", i),
			logger.String("source", source),
			logger.Error(err),
		)
	}

	s.logger.Info(ctx, "match batch finished",
		logger.Int("requested", result.Requested),
		logger.Int("created", result.Created),
		logger.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *Service) roster(ctx context.Context, useRealUsers bool) ([]types.Player, error) {
	if !useRealUsers {
		users, err := s.createSynthetic(ctx, balance.RosterSize)
		if err != nil {
			return nil, err
		}
		if len(users) < balance.RosterSize {
			return nil, &RosterError{Available: len(users), Required: balance.RosterSize}
		}
		return pie.Map(users, model.User.Player), nil
	}

	store, err := s.repo()
	if err != nil {
		return nil, err
	}
	users, err := store.RandomUsers(ctx, balance.RosterSize)
	if err != nil {
		return nil, fmt.Errorf("pick roster: %w", err)
	}
	if len(users) < balance.RosterSize {
		return nil, &RosterError{Available: len(users), Required: balance.RosterSize}
	}
	return pie.Map(users, model.User.Player), nil
}

// GenerateUsers creates count synthetic accounts.
func (s *Service) GenerateUsers(ctx context.Context, count int) ([]model.User, error) {
	if count < 1 || count > s.maxSyntheticUsers {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrLimitExceeded, s.maxSyntheticUsers)
	}
	users, err := s.createSynthetic(ctx, count)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "synthetic users created", logger.Int("requested", count), logger.Int("created", len(users)))
	return users, nil
}

// createSynthetic persists count generated profiles. Accounts that fail to
// insert are logged and skipped.
func (s *Service) createSynthetic(ctx context.Context, count int) ([]model.User, error) {
	store, err := s.repo()
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, count)
	for _, p := range s.generator.GenerateProfiles(count) {
		if err := ctx.Err(); err != nil {
			return users, err
		}
		u := model.User{
			ID:             p.Player.ID,
			DisplayName:    p.Player.DisplayName,
			MMR:            p.Player.SkillRating,
			PreferredRole:  string(p.Player.PreferredRole),
			FavoriteHeroes: p.FavoriteHeroes,
			Synthetic:      true,
		}
		if err := store.CreateUser(ctx, &u); err != nil {
			s.logger.Warn(ctx, "skipping synthetic user", logger.String("userID", u.ID), logger.Error(err))
			continue
		}
		users = append(users, u)
	}
	metrics.RecordSyntheticUsers(len(users))
	return users, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientRoster):
		return "insufficient_roster"
	case errors.Is(err, balance.ErrRosterSize):
		return "roster_size"
	default:
		return "internal"
	}
}
