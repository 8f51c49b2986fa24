package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/logger"
	"github.com/hotstinder/hotstinder/pkg/metrics"
)

// GormStore is a Store backed by a relational database through gorm.
type GormStore struct {
	db            *gorm.DB
	log           logger.Logger
	slowThreshold time.Duration
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(ctx context.Context, dsn string, opts ...GormOption) (*GormStore, error) {
	return NewGormStore(ctx, postgres.Open(dsn), opts...)
}

// NewGormStore opens dialector and migrates the schema.
func NewGormStore(ctx context.Context, dialector gorm.Dialector, opts ...GormOption) (*GormStore, error) {
	s := &GormStore{
		log:           logger.Get().Named("gorm"),
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLog(s.log, s.slowThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(&model.User{}, &model.Match{}, &model.MatchPlayer{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(fmt.Sprintf("create user %s", u.ID), err)
	}
	return nil
}

func (s *GormStore) UpsertBattleNetUser(ctx context.Context, acct BattleNetAccount) (model.User, bool, error) {
	var (
		u       model.User
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("battle_net_id = ?", acct.ID).
			First(&u).Error
		switch {
		case err == nil:
			return tx.Model(&u).Updates(map[string]any{
				"battle_tag": acct.BattleTag,
				"is_admin":   acct.IsAdmin,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bnetID := acct.ID
			u = model.User{
				ID:          uuid.NewString(),
				BattleNetID: &bnetID,
				BattleTag:   acct.BattleTag,
				DisplayName: DisplayNameFromBattleTag(acct.BattleTag),
				MMR:         types.DefaultSkillRating,
				IsAdmin:     acct.IsAdmin,
			}
			created = true
			return tx.Create(&u).Error
		default:
			return err
		}
	})
	if err != nil {
		return model.User{}, false, translate("upsert battle.net user", err)
	}
	return u, created, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return model.User{}, translate(fmt.Sprintf("user %s", id), err)
	}
	return u, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		if upd.DisplayName != nil {
			u.DisplayName = *upd.DisplayName
		}
		if upd.PreferredRole != nil {
			u.PreferredRole = *upd.PreferredRole
		}
		if upd.SetFavorites {
			u.FavoriteHeroes = upd.FavoriteHeroes
		}
		return tx.Select("display_name", "preferred_role", "favorite_heroes", "updated_at").Save(&u).Error
	})
	if err != nil {
		return model.User{}, translate(fmt.Sprintf("update profile %s", id), err)
	}
	return u, nil
}

func (s *GormStore) ListUsers(ctx context.Context, page model.Page) ([]model.User, int, error) {
	if page.Limit < 1 || page.Offset < 0 {
		return nil, 0, ErrInvalidLimit
	}
	var (
		users []model.User
		total int64
	)
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count users", err)
	}
	if err := db.Order("created_at ASC, id ASC").Offset(page.Offset).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, translate("list users", err)
	}
	return users, int(total), nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(fmt.Sprintf("delete user %s", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) CountUsers(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, translate("count users", err)
	}
	return int(n), nil
}

func (s *GormStore) RandomUsers(ctx context.Context, n int) ([]model.User, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Order("RANDOM()").Limit(n).Find(&users).Error; err != nil {
		return nil, translate("random users", err)
	}
	return users, nil
}

func (s *GormStore) TopN(ctx context.Context, limit, offset int) ([]types.Entry, error) {
	if limit < 1 || offset < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	db := s.db.WithContext(ctx)

	var users []model.User
	if err := db.Order("mmr DESC, id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, translate("top users", err)
	}

	out := make([]types.Entry, 0, len(users))
	for i, u := range users {
		rank := offset + i + 1
		if i == 0 {
			var err error
			if rank, err = s.rank(db, u.MMR); err != nil {
				return nil, err
			}
		} else if prev := out[i-1]; prev.MMR == u.MMR {
			rank = prev.Rank
		}
		out = append(out, u.Entry(rank))
	}
	return out, nil
}

func (s *GormStore) Rank(ctx context.Context, userID string) (types.Entry, error) {
	db := s.db.WithContext(ctx)

	var u model.User
	if err := db.First(&u, "id = ?", userID).Error; err != nil {
		return types.Entry{}, translate(fmt.Sprintf("user %s", userID), err)
	}
	rank, err := s.rank(db, u.MMR)
	if err != nil {
		return types.Entry{}, err
	}
	return u.Entry(rank), nil
}

func (s *GormStore) rank(db *gorm.DB, mmr int) (int, error) {
	var above int64
	if err := db.Model(&model.User{}).Where("mmr > ?", mmr).Count(&above).Error; err != nil {
		return 0, translate("rank", err)
	}
	return int(above) + 1, nil
}

func (s *GormStore) RecordMatch(ctx context.Context, m *model.Match, delta int) error {
	ids := make([]string, len(m.Players))
	for i, p := range m.Players {
		ids[i] = p.UserID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id").
			Find(&users).Error; err != nil {
			return err
		}
		byID := make(map[string]*model.User, len(users))
		for i := range users {
			byID[users[i].ID] = &users[i]
		}

		for i := range m.Players {
			p := &m.Players[i]
			u, ok := byID[p.UserID]
			if !ok {
				return fmt.Errorf("player %s: %w", p.UserID, ErrNotFound)
			}
			p.MMRBefore = u.MMR
			p.MMRDelta = ApplyResult(u, p.Won, delta)
			if p.DisplayName == "" {
				p.DisplayName = u.DisplayName
			}
		}

		if err := tx.Create(m).Error; err != nil {
			return err
		}

		for _, u := range byID {
			if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Updates(map[string]any{
				"mmr":    u.MMR,
				"wins":   u.Wins,
				"losses": u.Losses,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(fmt.Sprintf("record match %s", m.ID), err)
	}
	return nil
}

func (s *GormStore) GetMatch(ctx context.Context, id string) (model.Match, error) {
	var m model.Match
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		return model.Match{}, translate(fmt.Sprintf("match %s", id), err)
	}
	return m, nil
}

func (s *GormStore) ListMatches(ctx context.Context, filter model.MatchFilter) ([]model.Match, int, error) {
	if filter.Page.Limit < 1 || filter.Page.Offset < 0 {
		return nil, 0, ErrInvalidLimit
	}
	db := s.db.WithContext(ctx)
	query := func() *gorm.DB {
		q := db.Model(&model.Match{})
		if filter.UserID != "" {
			q = q.Where("id IN (?)", db.Model(&model.MatchPlayer{}).Select("match_id").Where("user_id = ?", filter.UserID))
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate("count matches", err)
	}

	var matches []model.Match
	err := query().Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Offset(filter.Page.Offset).
		Limit(filter.Page.Limit).
		Find(&matches).Error
	if err != nil {
		return nil, 0, translate("list matches", err)
	}
	return matches, int(total), nil
}

func (s *GormStore) DeleteMatch(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Match{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("match_id = ?", id).Delete(&model.MatchPlayer{}).Error
	})
	if err != nil {
		return translate(fmt.Sprintf("delete match %s", id), err)
	}
	return nil
}

// translate maps gorm errors onto the package sentinels.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidLimit):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		metrics.RecordErrorByComponent("repository", "conflict")
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		metrics.RecordErrorByComponent("repository", "database")
		return fmt.Errorf("%s: %w", op, err)
	}
}
