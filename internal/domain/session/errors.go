package session

import "errors"

// ErrInvalidTransition is returned when a session cannot move to the requested state.
var ErrInvalidTransition = errors.New("invalid session transition")
