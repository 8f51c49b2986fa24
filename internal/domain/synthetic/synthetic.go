// Package synthetic fabricates plausible players for demos and load tests.
package synthetic

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/hotstinder/hotstinder/internal/domain/catalog"
	"github.com/hotstinder/hotstinder/internal/domain/simulate"
	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// Rating distribution.
const (
	MeanSkillRating   = 1500
	StdDevSkillRating = 300
	MinSkillRating    = 1000
	MaxSkillRating    = 3000

	maxNameSuffix     = 9999
	minFavoriteHeroes = 1
	maxFavoriteHeroes = 3
)

var adjectives = []string{
	"Swift", "Silent", "Brave", "Crimson", "Frozen", "Shadow", "Mighty", "Clever",
	"Savage", "Arcane", "Golden", "Iron", "Lucky", "Furious", "Cosmic", "Wild",
	"Ancient", "Rusty", "Blazing", "Sneaky",
}

var nouns = []string{
	"Tiger", "Wizard", "Knight", "Dragon", "Murloc", "Ranger", "Titan", "Phoenix",
	"Golem", "Rogue", "Paladin", "Zergling", "Marine", "Druid", "Nexus", "Templar",
	"Archon", "Banshee", "Viking", "Warden",
}

// Profile is a generated player plus the favourite heroes stored with the account.
type Profile struct {
	Player         types.Player
	FavoriteHeroes []string
}

// Generator produces synthetic players.
type Generator struct {
	src   simulate.Source
	newID func() string
}

// New returns a Generator using the global source and uuid ids unless overridden.
func New(opts ...Option) *Generator {
	g := &Generator{
		src:   simulate.GlobalSource(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns count synthetic players. A non-positive count yields none.
func (g *Generator) Generate(count int) []types.Player {
	if count <= 0 {
		return nil
	}
	players := make([]types.Player, count)
	for i := range players {
		players[i] = g.player()
	}
	return players
}

// GenerateProfiles is Generate with favourite heroes attached.
func (g *Generator) GenerateProfiles(count int) []Profile {
	if count <= 0 {
		return nil
	}
	profiles := make([]Profile, count)
	for i := range profiles {
		profiles[i] = Profile{Player: g.player(), FavoriteHeroes: g.FavoriteHeroes()}
	}
	return profiles
}

func (g *Generator) player() types.Player {
	return types.Player{
		ID:            g.newID(),
		DisplayName:   g.DisplayName(),
		SkillRating:   g.SkillRating(),
		PreferredRole: catalog.Role(g.src.IntN(catalog.RoleCount())),
	}
}

// SkillRating draws from N(1500, 300) with a Box-Muller transform, rounded
// and clamped to [1000, 3000].
func (g *Generator) SkillRating() int {
	u1 := 1 - g.src.Float64() // (0, 1], keeps the log finite
	u2 := g.src.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	r := int(math.Round(MeanSkillRating + StdDevSkillRating*z))
	return min(MaxSkillRating, max(MinSkillRating, r))
}

// DisplayName returns Adjective+Noun+N with N in [1, 9999].
func (g *Generator) DisplayName() string {
	adj := adjectives[g.src.IntN(len(adjectives))]
	noun := nouns[g.src.IntN(len(nouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, 1+g.src.IntN(maxNameSuffix))
}

// FavoriteHeroes returns one to three distinct catalog heroes.
func (g *Generator) FavoriteHeroes() []string {
	n := minFavoriteHeroes + g.src.IntN(maxFavoriteHeroes-minFavoriteHeroes+1)
	pool := catalog.Heroes()
	for i := 0; i < n; i++ {
		j := i + g.src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n]
}
