package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	"github.com/hotstinder/hotstinder/internal/domain/catalog"
	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/logger"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

// MaxFavoriteHeroes caps the favourite heroes on a profile.
const MaxFavoriteHeroes = 5

// Login links a Battle.net identity to an account, creating it on first login.
// The bool reports whether the account is new.
func (s *Service) Login(ctx context.Context, id auth.Identity) (model.User, bool, error) {
	store, err := s.repo()
	if err != nil {
		return model.User{}, false, err
	}
	_, isAdmin := s.adminTags[strings.ToLower(id.BattleTag)]

	u, created, err := store.UpsertBattleNetUser(ctx, repository.BattleNetAccount{
		ID:        id.ID,
		BattleTag: id.BattleTag,
		IsAdmin:   isAdmin,
	})
	if err != nil {
		metrics.RecordLogin("error")
		return model.User{}, false, fmt.Errorf("login %s: %w", id.BattleTag, err)
	}

	if created {
		metrics.RecordLogin("created")
	} else {
		metrics.RecordLogin("returning")
	}
	s.logger.Info(ctx, "user logged in",
		logger.String("userID", u.ID),
		logger.String("battleTag", u.BattleTag),
		logger.Bool("created", created),
		logger.Bool("admin", u.IsAdmin),
	)
	return u, created, nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, id string) (model.User, error) {
	store, err := s.repo()
	if err != nil {
		return model.User{}, err
	}
	return store.GetUser(ctx, id)
}

// UpdateProfile validates the update against the catalogs and applies it.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (model.User, error) {
	store, err := s.repo()
	if err != nil {
		return model.User{}, err
	}
	if upd.PreferredRole != nil && *upd.PreferredRole != "" && !catalog.IsRole(types.Role(*upd.PreferredRole)) {
		return model.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidProfile, *upd.PreferredRole)
	}
	if upd.SetFavorites {
		heroes := dedupeOrdered(upd.FavoriteHeroes)
		if len(heroes) > MaxFavoriteHeroes {
			return model.User{}, fmt.Errorf("%w: at most %d favorite heroes", ErrInvalidProfile, MaxFavoriteHeroes)
		}
		if unknown := pie.Filter(heroes, func(h string) bool { return !catalog.IsHero(h) }); len(unknown) > 0 {
			return model.User{}, fmt.Errorf("%w: unknown heroes %s", ErrInvalidProfile, strings.Join(unknown, ", "))
		}
		upd.FavoriteHeroes = heroes
	}
	return store.UpdateProfile(ctx, id, upd)
}

// dedupeOrdered drops repeated items, keeping first occurrences in order.
func dedupeOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// ListUsers returns one page of accounts and the total count.
func (s *Service) ListUsers(ctx context.Context, page model.Page) ([]model.User, int, error) {
	store, err := s.repo()
	if err != nil {
		return nil, 0, err
	}
	return store.ListUsers(ctx, page)
}

// DeleteUser removes an account and any matchmaking state it had.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	store, err := s.repo()
	if err != nil {
		return err
	}
	if err := store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.sessions.Forget(id)
	if s.isStarted() {
		s.pool.Lobby().Remove(id)
	}
	s.logger.Info(ctx, "user deleted", logger.String("userID", id))
	return nil
}

// GetMatch returns one match.
func (s *Service) GetMatch(ctx context.Context, id string) (model.Match, error) {
	store, err := s.repo()
	if err != nil {
		return model.Match{}, err
	}
	return store.GetMatch(ctx, id)
}

// ListMatches returns one page of matches, newest first, and the total count.
func (s *Service) ListMatches(ctx context.Context, filter model.MatchFilter) ([]model.Match, int, error) {
	store, err := s.repo()
	if err != nil {
		return nil, 0, err
	}
	return store.ListMatches(ctx, filter)
}

// DeleteMatch removes a match record. Player counters are not reverted.
func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	store, err := s.repo()
	if err != nil {
		return err
	}
	if err := store.DeleteMatch(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "match deleted", logger.String("matchID", id))
	return nil
}

// TopN returns up to limit leaderboard entries starting at offset.
func (s *Service) TopN(ctx context.Context, limit, offset int) ([]types.Entry, error) {
	store, err := s.repo()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, limit, offset)
}

// Rank returns the leaderboard entry for one user.
func (s *Service) Rank(ctx context.Context, userID string) (types.Entry, error) {
	store, err := s.repo()
	if err != nil {
		return types.Entry{}, err
	}
	return store.Rank(ctx, userID)
}
