// Package catalog holds the fixed hero, role and map tables used for drafts
// and synthetic data. The tables are package-level and never rebuilt.
package catalog

import "github.com/hotstinder/hotstinder/internal/domain/types"

const (
	Tank           types.Role = "Tank"
	Bruiser        types.Role = "Bruiser"
	Healer         types.Role = "Healer"
	Support        types.Role = "Support"
	RangedAssassin types.Role = "Ranged Assassin"
	MeleeAssassin  types.Role = "Melee Assassin"
)

var roles = []types.Role{Tank, Bruiser, Healer, Support, RangedAssassin, MeleeAssassin}

var maps = []string{
	"Alterac Pass",
	"Battlefield of Eternity",
	"Blackheart's Bay",
	"Braxis Holdout",
	"Cursed Hollow",
	"Dragon Shire",
	"Garden of Terror",
	"Hanamura Temple",
	"Infernal Shrines",
	"Sky Temple",
	"Tomb of the Spider Queen",
	"Towers of Doom",
	"Volskaya Foundry",
	"Warhead Junction",
}

var heroes = []string{
	"Abathur", "Alarak", "Alexstrasza", "Ana", "Anduin", "Anub'arak", "Artanis", "Arthas",
	"Auriel", "Azmodan", "Blaze", "Brightwing", "Cassia", "Chen", "Cho", "Chromie",
	"D.Va", "Deckard", "Dehaka", "Diablo", "E.T.C.", "Falstad", "Fenix", "Gall",
	"Garrosh", "Gazlowe", "Genji", "Greymane", "Gul'dan", "Hanzo", "Hogger", "Illidan",
	"Imperius", "Jaina", "Johanna", "Junkrat", "Kael'thas", "Kel'Thuzad", "Kerrigan", "Kharazim",
	"Leoric", "Li Li", "Li-Ming", "Lt. Morales", "Lúcio", "Lunara", "Maiev", "Mal'Ganis",
	"Malfurion", "Malthael", "Medivh", "Mei", "Mephisto", "Muradin", "Murky", "Nazeebo",
	"Nova", "Orphea", "Probius", "Qhira", "Ragnaros", "Raynor", "Rehgar", "Rexxar",
	"Samuro", "Sgt. Hammer", "Sonya", "Stitches", "Stukov", "Sylvanas", "Tassadar", "The Butcher",
	"The Lost Vikings", "Thrall", "Tracer", "Tychus", "Tyrael", "Tyrande", "Uther", "Valeera",
	"Valla", "Varian", "Whitemane", "Xul", "Yrel", "Zagara", "Zarya", "Zeratul",
	"Zul'jin", "Cho'gall", "Deathwing",
}

var (
	roleSet = toSet(roles)
	heroSet = toSet(heroes)
	mapSet  = toSet(maps)
)

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// Roles returns a copy of the role table.
func Roles() []types.Role { return append([]types.Role(nil), roles...) }

// Maps returns a copy of the map table.
func Maps() []string { return append([]string(nil), maps...) }

// Heroes returns a copy of the hero table.
func Heroes() []string { return append([]string(nil), heroes...) }

// Role, Map and Hero index into the tables without copying.
func Role(i int) types.Role { return roles[i] }
func Map(i int) string      { return maps[i] }
func Hero(i int) string     { return heroes[i] }

func RoleCount() int { return len(roles) }
func MapCount() int  { return len(maps) }
func HeroCount() int { return len(heroes) }

// IsRole reports whether r is a catalog role.
func IsRole(r types.Role) bool {
	_, ok := roleSet[r]
	return ok
}

// IsHero reports whether h is a catalog hero.
func IsHero(h string) bool {
	_, ok := heroSet[h]
	return ok
}

// IsMap reports whether m is a catalog map.
func IsMap(m string) bool {
	_, ok := mapSet[m]
	return ok
}
