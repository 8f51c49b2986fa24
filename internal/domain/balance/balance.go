// Package balance splits a ten-player roster into two five-player teams.
//
// Players are sorted by skill rating (descending, stable) and drafted with a
// period-4 snake: positions 0,1 prefer team A, positions 2,3 prefer team B,
// and so on. A full preferred team sends the player to the other side.
// The split is deterministic for a given input order.
package balance

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// RosterSize is the number of players a match needs.
const RosterSize = 2 * types.TeamSize

// Balance partitions exactly ten players into team A (blue) and team B (red).
// The input slice is not modified.
func Balance(players []types.Player) (types.Team, types.Team, error) {
	if len(players) != RosterSize {
		return types.Team{}, types.Team{}, fmt.Errorf("%w: got %d", ErrRosterSize, len(players))
	}

	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b types.Player) int {
		return b.SkillRating - a.SkillRating
	})

	a := make([]types.Player, 0, types.TeamSize)
	b := make([]types.Player, 0, types.TeamSize)
	for i, p := range sorted {
		preferA := i%4 < 2
		switch {
		case preferA && len(a) < types.TeamSize, !preferA && len(b) >= types.TeamSize:
			a = append(a, p)
		default:
			b = append(b, p)
		}
	}

	a, b = evenOut(a, b)
	return newTeam(a), newTeam(b), nil
}

// evenOut moves players from the end of the larger team until both hold
// TeamSize. The moved player is not chosen by rating.
func evenOut(a, b []types.Player) ([]types.Player, []types.Player) {
	for len(a) > types.TeamSize && len(b) < types.TeamSize {
		last := a[len(a)-1]
		a = a[:len(a)-1]
		b = append(b, last)
	}
	for len(b) > types.TeamSize && len(a) < types.TeamSize {
		last := b[len(b)-1]
		b = b[:len(b)-1]
		a = append(a, last)
	}
	return a, b
}

func newTeam(members []types.Player) types.Team {
	return types.Team{Members: members, AverageSkillRating: AverageSkillRating(members)}
}

// AverageSkillRating returns the mean rating of members, or 0 for none.
func AverageSkillRating(members []types.Player) float64 {
	if len(members) == 0 {
		return 0
	}
	ratings := make([]float64, len(members))
	for i, m := range members {
		ratings[i] = float64(m.SkillRating)
	}
	return stat.Mean(ratings, nil)
}
