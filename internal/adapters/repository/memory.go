package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

// MemoryStore is an in-process Store. Users and matches live in maps and the
// leaderboard is kept in a treap so TopN and Rank are O(log n + k).
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	byBnet    map[string]string // battle.net id -> user id
	userOrder []string          // creation order
	matches   map[string]*model.Match
	matchSeq  []string // insertion order, newest last
	index     rankIndex

	now                   func() time.Time
	newID                 func() string
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:                 make(map[string]*model.User),
		byBnet:                make(map[string]string),
		matches:               make(map[string]*model.Match),
		now:                   time.Now,
		newID:                 uuid.NewString,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = s.newID()
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, ErrConflict)
	}
	if u.BattleNetID != nil {
		if _, ok := s.byBnet[*u.BattleNetID]; ok {
			return fmt.Errorf("battle.net account %s: %w", *u.BattleNetID, ErrConflict)
		}
	}
	s.insertLocked(u)
	return nil
}

func (s *MemoryStore) insertLocked(u *model.User) {
	now := s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	stored := copyUser(u)
	s.users[u.ID] = &stored
	if u.BattleNetID != nil {
		s.byBnet[*u.BattleNetID] = u.ID
	}
	s.userOrder = append(s.userOrder, u.ID)
	s.index.insert(u.ID, u.MMR)
}

func (s *MemoryStore) UpsertBattleNetUser(_ context.Context, acct BattleNetAccount) (model.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBnet[acct.ID]; ok {
		u := s.users[id]
		u.BattleTag = acct.BattleTag
		u.IsAdmin = acct.IsAdmin
		u.UpdatedAt = s.now()
		return copyUser(u), false, nil
	}

	bnetID := acct.ID
	u := &model.User{
		ID:          s.newID(),
		BattleNetID: &bnetID,
		BattleTag:   acct.BattleTag,
		DisplayName: DisplayNameFromBattleTag(acct.BattleTag),
		MMR:         types.DefaultSkillRating,
		IsAdmin:     acct.IsAdmin,
	}
	s.insertLocked(u)
	return copyUser(s.users[u.ID]), true, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id string, upd model.ProfileUpdate) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.PreferredRole != nil {
		u.PreferredRole = *upd.PreferredRole
	}
	if upd.SetFavorites {
		u.FavoriteHeroes = slices.Clone(upd.FavoriteHeroes)
	}
	u.UpdatedAt = s.now()
	return copyUser(u), nil
}

func (s *MemoryStore) ListUsers(_ context.Context, page model.Page) ([]model.User, int, error) {
	if page.Limit < 1 || page.Offset < 0 {
		return nil, 0, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.userOrder)
	out := make([]model.User, 0, page.Limit)
	for i := page.Offset; i < total && len(out) < page.Limit; i++ {
		out = append(out, copyUser(s.users[s.userOrder[i]]))
	}
	return out, total, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(s.users, id)
	if u.BattleNetID != nil {
		delete(s.byBnet, *u.BattleNetID)
	}
	s.userOrder = slices.DeleteFunc(s.userOrder, func(v string) bool { return v == id })
	s.index.remove(id, u.MMR)
	return nil
}

func (s *MemoryStore) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStore) RandomUsers(_ context.Context, n int) ([]model.User, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Clone(s.userOrder)
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	out := make([]model.User, 0, min(n, len(ids)))
	for _, id := range ids[:min(n, len(ids))] {
		out = append(out, copyUser(s.users[id]))
	}
	return out, nil
}

func (s *MemoryStore) TopN(_ context.Context, limit, offset int) ([]types.Entry, error) {
	if limit < 1 || offset < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.index.ids(offset, limit)
	out := make([]types.Entry, 0, len(ids))
	for i, id := range ids {
		u := s.users[id]
		rank := offset + i + 1
		if i == 0 {
			rank = s.index.rank(u.MMR)
		} else if prev := out[i-1]; prev.MMR == u.MMR {
			rank = prev.Rank
		}
		out = append(out, u.Entry(rank))
	}
	return out, nil
}

func (s *MemoryStore) Rank(_ context.Context, userID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return u.Entry(s.index.rank(u.MMR)), nil
}

func (s *MemoryStore) RecordMatch(_ context.Context, m *model.Match, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; ok {
		return fmt.Errorf("match %s: %w", m.ID, ErrConflict)
	}
	for _, p := range m.Players {
		if _, ok := s.users[p.UserID]; !ok {
			return fmt.Errorf("match %s player %s: %w", m.ID, p.UserID, ErrNotFound)
		}
	}

	now := s.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	for i := range m.Players {
		p := &m.Players[i]
		u := s.users[p.UserID]

		p.MMRBefore = u.MMR
		p.MMRDelta = ApplyResult(u, p.Won, delta)
		if p.DisplayName == "" {
			p.DisplayName = u.DisplayName
		}
		u.UpdatedAt = now
		s.index.update(u.ID, p.MMRBefore, u.MMR)
	}

	stored := *m
	stored.Players = slices.Clone(m.Players)
	s.matches[m.ID] = &stored
	s.matchSeq = append(s.matchSeq, m.ID)
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return copyMatch(m), nil
}

func (s *MemoryStore) ListMatches(_ context.Context, filter model.MatchFilter) ([]model.Match, int, error) {
	if filter.Page.Limit < 1 || filter.Page.Offset < 0 {
		return nil, 0, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	out := make([]model.Match, 0, filter.Page.Limit)
	for i := len(s.matchSeq) - 1; i >= 0; i-- {
		m := s.matches[s.matchSeq[i]]
		if filter.UserID != "" && !hasPlayer(m, filter.UserID) {
			continue
		}
		if total >= filter.Page.Offset && len(out) < filter.Page.Limit {
			out = append(out, copyMatch(m))
		}
		total++
	}
	return out, total, nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	delete(s.matches, id)
	s.matchSeq = slices.DeleteFunc(s.matchSeq, func(v string) bool { return v == id })
	return nil
}

// startMetricsUpdater periodically publishes the user count.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.users)
				s.mu.RUnlock()
				metrics.UpdateUsersTotal(n)
			}
		}
	}()
}

// ApplyResult adds a win or loss to u and moves its MMR by delta, never
// below zero. It returns the MMR change actually applied.
func ApplyResult(u *model.User, won bool, delta int) int {
	before := u.MMR
	if won {
		u.Wins++
		u.MMR += delta
	} else {
		u.Losses++
		u.MMR = max(0, u.MMR-delta)
	}
	return u.MMR - before
}

// DisplayNameFromBattleTag strips the #discriminator from a BattleTag.
func DisplayNameFromBattleTag(tag string) string {
	name, _, _ := strings.Cut(tag, "#")
	if name == "" {
		return tag
	}
	return name
}

func hasPlayer(m *model.Match, userID string) bool {
	return slices.ContainsFunc(m.Players, func(p model.MatchPlayer) bool { return p.UserID == userID })
}

func copyUser(u *model.User) model.User {
	out := *u
	out.FavoriteHeroes = slices.Clone(u.FavoriteHeroes)
	if u.BattleNetID != nil {
		id := *u.BattleNetID
		out.BattleNetID = &id
	}
	return out
}

func copyMatch(m *model.Match) model.Match {
	out := *m
	out.Players = slices.Clone(m.Players)
	return out
}
