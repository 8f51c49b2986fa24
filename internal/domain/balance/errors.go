package balance

import "errors"

// ErrRosterSize is returned when the roster is not exactly RosterSize players.
var ErrRosterSize = errors.New("roster must contain exactly 10 players")
