// Package types contains the value types shared by the matchmaking core and its adapters.
package types

// Role is a hero role from the catalog. The empty Role means "no preference".
type Role string

// DefaultSkillRating is the MMR assigned to new accounts.
const DefaultSkillRating = 1500

// TeamSize is the number of players per side.
const TeamSize = 5

// Team indices. Team A plays on the blue side.
const (
	TeamBlue = 0
	TeamRed  = 1
)

// Player is a roster candidate handed to the balancer.
type Player struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	SkillRating   int    `json:"skill_rating"`
	PreferredRole Role   `json:"preferred_role,omitempty"`
}

// Team is one side of a match.
type Team struct {
	Members            []Player `json:"members"`
	AverageSkillRating float64  `json:"average_skill_rating"`
}

// TeamName returns "blue" or "red" for a team index.
func TeamName(index int) string {
	if index == TeamBlue {
		return "blue"
	}
	return "red"
}

// Entry represents a leaderboard row.
type Entry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	MMR         int     `json:"mmr"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
}

// WinRate returns wins / (wins + losses), or 0 without games.
func WinRate(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}
