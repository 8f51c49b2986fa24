// Package model holds the persistent records shared by the stores and the API.
package model

import (
	"time"

	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// Match sources.
const (
	SourceQueue     = "queue"
	SourceSynthetic = "synthetic"
	SourceRoster    = "roster"
)

// User is a player account, either linked to Battle.net or synthetic.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	BattleNetID    *string   `json:"battle_net_id,omitempty" gorm:"uniqueIndex"`
	BattleTag      string    `json:"battle_tag"`
	DisplayName    string    `json:"display_name" gorm:"not null"`
	MMR            int       `json:"mmr" gorm:"not null;default:1500;index"`
	PreferredRole  string    `json:"preferred_role"`
	FavoriteHeroes []string  `json:"favorite_heroes" gorm:"serializer:json"`
	Wins           int       `json:"wins" gorm:"not null;default:0"`
	Losses         int       `json:"losses" gorm:"not null;default:0"`
	IsAdmin        bool      `json:"is_admin"`
	Synthetic      bool      `json:"synthetic" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Player converts the account into a roster candidate.
func (u User) Player() types.Player {
	return types.Player{
		ID:            u.ID,
		DisplayName:   u.DisplayName,
		SkillRating:   u.MMR,
		PreferredRole: types.Role(u.PreferredRole),
	}
}

// Entry converts the account into a leaderboard row at the given rank.
func (u User) Entry(rank int) types.Entry {
	return types.Entry{
		Rank:        rank,
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		MMR:         u.MMR,
		Wins:        u.Wins,
		Losses:      u.Losses,
		WinRate:     types.WinRate(u.Wins, u.Losses),
	}
}

// Match is a persisted match with both rosters.
type Match struct {
	ID              string        `json:"id" gorm:"primaryKey;type:varchar(26)"`
	Source          string        `json:"source" gorm:"type:varchar(16);not null"`
	Map             string        `json:"map"`
	DurationSeconds int           `json:"duration_seconds"`
	WinningTeam     int           `json:"winning_team"`
	WinProbability  float64       `json:"win_probability"`
	BlueAverageMMR  float64       `json:"blue_average_mmr"`
	RedAverageMMR   float64       `json:"red_average_mmr"`
	Players         []MatchPlayer `json:"players" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time     `json:"created_at" gorm:"index"`
}

// MatchPlayer is one participant of a match.
type MatchPlayer struct {
	ID          uint   `json:"-" gorm:"primaryKey"`
	MatchID     string `json:"-" gorm:"type:varchar(26);index;not null"`
	UserID      string `json:"user_id" gorm:"type:varchar(64);index;not null"`
	DisplayName string `json:"display_name"`
	Team        int    `json:"team"`
	Hero        string `json:"hero"`
	Role        string `json:"role"`
	MMRBefore   int    `json:"mmr_before"`
	MMRDelta    int    `json:"mmr_delta"`
	Won         bool   `json:"won"`
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName    *string
	PreferredRole  *string
	FavoriteHeroes []string
	SetFavorites   bool
}

// Page is an offset window into a listing.
type Page struct {
	Offset int
	Limit  int
}

// MatchFilter narrows match listings.
type MatchFilter struct {
	UserID string
	Page   Page
}
