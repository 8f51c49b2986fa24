package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientRoster is returned when fewer real users exist than a match needs.
	ErrInsufficientRoster = errors.New("insufficient roster")
	// ErrLimitExceeded is returned when a batch count is outside its allowed range.
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrQueueFull is returned when the matchmaking queue rejects a ticket.
	ErrQueueFull = errors.New("matchmaking queue is full")
	// ErrNotStarted is returned by operations that need a running service.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidProfile is returned when a profile update names unknown catalog entries.
	ErrInvalidProfile = errors.New("invalid profile")
)

// RosterError reports how many real users were available for a match.
type RosterError struct {
	Available int
	Required  int
}

func (e *RosterError) Error() string {
	return fmt.Sprintf("%s: %d users available, %d required", ErrInsufficientRoster, e.Available, e.Required)
}

// Is lets errors.Is match ErrInsufficientRoster.
func (e *RosterError) Is(target error) bool { return target == ErrInsufficientRoster }
