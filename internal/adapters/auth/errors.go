package auth

import "errors"

// Sentinel kinds for authentication errors.
var (
	ErrInvalidState  = errors.New("invalid oauth state")
	ErrStateReplayed = errors.New("oauth state already used")
	ErrInvalidToken  = errors.New("invalid session token")
	ErrMissingToken  = errors.New("missing session token")
	ErrExchange      = errors.New("battle.net code exchange failed")
	ErrUserInfo      = errors.New("battle.net userinfo failed")
	ErrNotConfigured = errors.New("battle.net login is not configured")
)
