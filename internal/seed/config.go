package seed

import (
	"time"

	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Token        string        // Admin session token
	Secret       string        // JWT secret used to mint a token when Token is empty
	Users        int           // Number of synthetic users to create
	Matches      int           // Number of matches to generate
	UseRealUsers bool          // Draw match rosters from stored users
	TopN         int           // Number of leaderboard entries to verify
	Workers      int           // Number of concurrent match requests
	Timeout      time.Duration // HTTP request timeout
	Verbose      bool          // Enable verbose logging
}

// Entry is a leaderboard row as served by GET /leaderboard.
type Entry = types.Entry

type generateUsersRequest struct {
	Count int `json:"count"`
}

type generateUsersResponse struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
}

type generateMatchesRequest struct {
	Count        int  `json:"count"`
	UseRealUsers bool `json:"useRealUsers"`
}

type generateMatchesResponse struct {
	Requested int      `json:"requested"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	MatchIDs  []string `json:"match_ids"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds run statistics.
type Stats struct {
	UsersRequested     int
	UsersCreated       int
	MatchesRequested   int
	MatchesCreated     int
	MatchesFailed      int
	RequestsFailed     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
