// Package repository persists users and matches and serves the leaderboard.
package repository

import (
	"context"

	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// BattleNetAccount is the identity returned by Battle.net's userinfo endpoint.
type BattleNetAccount struct {
	ID        string
	BattleTag string
	IsAdmin   bool
}

// UserStore provides access to player accounts.
type UserStore interface {
	// CreateUser inserts u, assigning an id when empty.
	// Returns ErrConflict if the id or Battle.net id is taken.
	CreateUser(ctx context.Context, u *model.User) error
	// UpsertBattleNetUser finds the account linked to acct.ID or creates it.
	// The bool reports whether a new account was created.
	UpsertBattleNetUser(ctx context.Context, acct BattleNetAccount) (model.User, bool, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (model.User, error)
	// ListUsers returns one page ordered by creation time and the total count.
	ListUsers(ctx context.Context, page model.Page) ([]model.User, int, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
	// RandomUsers returns up to n distinct users in random order.
	RandomUsers(ctx context.Context, n int) ([]model.User, error)
}

// Leaderboard ranks users by MMR desc, then id asc. Equal MMR shares a rank.
type Leaderboard interface {
	// TopN returns up to limit entries starting at offset.
	TopN(ctx context.Context, limit, offset int) ([]types.Entry, error)
	// Rank returns the entry for one user. Returns ErrNotFound if unknown.
	Rank(ctx context.Context, userID string) (types.Entry, error)
}

// MatchStore provides access to match history.
type MatchStore interface {
	// RecordMatch stores m and, atomically with it, applies +delta MMR and a
	// win to every winner and -delta MMR and a loss to every loser. MMR never
	// drops below zero. MMRBefore and MMRDelta are filled in on m.Players.
	// Returns ErrConflict if m.ID exists and ErrNotFound if a player is unknown;
	// nothing is written in either case.
	RecordMatch(ctx context.Context, m *model.Match, delta int) error
	GetMatch(ctx context.Context, id string) (model.Match, error)
	// ListMatches returns one page newest first and the total count.
	ListMatches(ctx context.Context, filter model.MatchFilter) ([]model.Match, int, error)
	// DeleteMatch removes the match only; player counters are left untouched.
	DeleteMatch(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the service.
type Store interface {
	UserStore
	Leaderboard
	MatchStore
	Close() error
}
