package seed

import (
	"fmt"
	"os"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
)

// ResolveToken returns the configured token, or mints an admin session
// token signed with the configured secret.
func ResolveToken(config *Config) (string, error) {
	if config.Token != "" {
		return config.Token, nil
	}
	if config.Secret == "" {
		return "", ErrNoToken
	}
	token, _, err := auth.NewManager(config.Secret).IssueSession(SeedAdminID, true)
	if err != nil {
		return "", fmt.Errorf("failed to mint admin token: %w", err)
	}
	return token, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`HotsTinder Seed Tool
====================

Creates synthetic players and matches through the admin API, then checks
that the leaderboard is ordered by MMR.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -token string
        Admin session token (default: minted from -secret)
  -secret string
        JWT secret of the service (default $HOTSTINDER_JWT_SECRET)
  -users int
        Number of synthetic users to create (default 100)
  -matches int
        Number of matches to generate (default 50)
  -real
        Draw match rosters from stored users instead of fresh synthetic ones
  -top int
        Number of leaderboard entries to verify (default 50)
  -workers int
        Number of concurrent match requests (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed a local instance
  go run ./cmd/seed -secret "$HOTSTINDER_JWT_SECRET"

  # Play 500 matches between the users already stored
  go run ./cmd/seed -secret "$HOTSTINDER_JWT_SECRET" -users 0 -matches 500 -real
`)
}
