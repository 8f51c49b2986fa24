// Package simulate fabricates the outcome of a match between two balanced teams.
package simulate

import (
	"math"

	"github.com/hotstinder/hotstinder/internal/domain/catalog"
	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// Win probability and duration parameters.
const (
	MinWinProbability = 0.1
	MaxWinProbability = 0.9

	MinDurationSeconds = 600
	MaxDurationSeconds = 2100
	durationSpread     = MaxDurationSeconds - MinDurationSeconds

	// ratingScale is the rating gap that moves the probability by ratingWeight.
	ratingScale  = 1000.0
	ratingWeight = 0.2
)

// Assignment is the cosmetic hero and role drawn for one player.
type Assignment struct {
	Hero string     `json:"hero"`
	Role types.Role `json:"role"`
}

// Outcome is the result of one simulated match.
type Outcome struct {
	WinningTeam     int                   `json:"winning_team"`
	WinProbability  float64               `json:"win_probability"`
	DurationSeconds int                   `json:"duration_seconds"`
	Map             string                `json:"map"`
	Assignments     map[string]Assignment `json:"assignments"`
}

// Simulator draws match outcomes from a Source.
type Simulator struct {
	src Source
}

// New returns a Simulator using the global source unless WithSource is given.
func New(opts ...Option) *Simulator {
	s := &Simulator{src: GlobalSource()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WinProbability returns the chance that a team averaging avgA beats a team
// averaging avgB, clamped to [0.1, 0.9].
func WinProbability(avgA, avgB float64) float64 {
	p := 0.5 + (avgA-avgB)/ratingScale*ratingWeight
	return math.Min(MaxWinProbability, math.Max(MinWinProbability, p))
}

// Simulate draws a winner, a duration, a map and a hero/role pair per player.
func (s *Simulator) Simulate(a, b types.Team) Outcome {
	p := WinProbability(a.AverageSkillRating, b.AverageSkillRating)

	winner := types.TeamRed
	if s.src.Float64() < p {
		winner = types.TeamBlue
	}

	out := Outcome{
		WinningTeam:     winner,
		WinProbability:  p,
		DurationSeconds: s.Duration(),
		Map:             s.Map(),
		Assignments:     make(map[string]Assignment, len(a.Members)+len(b.Members)),
	}
	for _, team := range []types.Team{a, b} {
		for _, m := range team.Members {
			out.Assignments[m.ID] = Assignment{Hero: s.Hero(), Role: s.Role()}
		}
	}
	return out
}

// Duration draws a match length in seconds from [600, 2100].
func (s *Simulator) Duration() int {
	return MinDurationSeconds + int(math.Round(s.src.Float64()*durationSpread))
}

// Map draws a battleground uniformly from the catalog.
func (s *Simulator) Map() string {
	return catalog.Map(s.src.IntN(catalog.MapCount()))
}

// Hero draws a hero uniformly from the catalog.
func (s *Simulator) Hero() string {
	return catalog.Hero(s.src.IntN(catalog.HeroCount()))
}

// Role draws a role uniformly from the catalog.
func (s *Simulator) Role() types.Role {
	return catalog.Role(s.src.IntN(catalog.RoleCount()))
}
