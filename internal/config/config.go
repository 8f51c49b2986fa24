// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults -> optional YAML file -> environment.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN is a Postgres DSN. Empty selects the in-memory store.
	DatabaseDSN string `koanf:"database_dsn"`

	// QueueSize bounds the matchmaking ticket queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of matchmaker workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// MaxPageSize caps the limit of paginated listings.
	MaxPageSize int `koanf:"max_page_size"`
	// MaxSyntheticUsers caps POST /admin/users/generate.
	MaxSyntheticUsers int `koanf:"max_synthetic_users"`
	// MaxSyntheticMatches caps POST /admin/matches/generate.
	MaxSyntheticMatches int `koanf:"max_synthetic_matches"`
	// RatingDelta is the flat MMR change applied to winners (+) and losers (-).
	RatingDelta int `koanf:"rating_delta"`

	// JWTSecret signs session tokens and OAuth state. It has no default and
	// must be at least MinSecretLength bytes.
	JWTSecret string `koanf:"jwt_secret"`
	// SessionTTLHours is the lifetime of a login session.
	SessionTTLHours int `koanf:"session_ttl_hours"`
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `koanf:"cookie_secure"`

	// Battle.net OAuth client.
	BattleNetClientID     string `koanf:"bnet_client_id"`
	BattleNetClientSecret string `koanf:"bnet_client_secret"`
	BattleNetRedirectURL  string `koanf:"bnet_redirect_url"`
	BattleNetRegion       string `koanf:"bnet_region"`

	// FrontendURL is where the OAuth callback sends the browser afterwards.
	FrontendURL string `koanf:"frontend_url"`
	// CORSOrigins lists origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`
	// AdminBattleTags are granted the admin role when they log in.
	AdminBattleTags []string `koanf:"admin_battletags"`
}

// MinSecretLength is the shortest accepted jwt_secret.
const MinSecretLength = 16

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		MaxLeaderboardLimit:  100,
		MaxPageSize:          100,
		MaxSyntheticUsers:    100,
		MaxSyntheticMatches:  50,
		RatingDelta:          25,
		SessionTTLHours:      24 * 7,
		BattleNetRegion:      "us",
		BattleNetRedirectURL: "http://localhost:9080/auth/bnet/callback",
		FrontendURL:          "http://localhost:3000",
		CORSOrigins:          []string{"http://localhost:3000"},
	}
}
