package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hotstinder/hotstinder/internal/seed"
	"github.com/hotstinder/hotstinder/pkg/logger"
)

// Default configuration constants.
const (
	defaultUsers      = 100
	defaultMatches    = 50
	defaultWorkers    = 4
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		token     = flag.String("token", "", "Admin session token")
		secret    = flag.String("secret", os.Getenv("HOTSTINDER_JWT_SECRET"), "JWT secret used to mint an admin token")
		users     = flag.Int("users", defaultUsers, "Number of synthetic users to create")
		matches   = flag.Int("matches", defaultMatches, "Number of matches to generate")
		realUsers = flag.Bool("real", false, "Draw match rosters from stored users")
		topN      = flag.Int("top", seed.DefaultTopN, "Number of leaderboard entries to verify")
		workers   = flag.Int("workers", defaultWorkers, "Number of concurrent match requests")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &seed.Config{
		BaseURL:      *baseURL,
		Token:        *token,
		Secret:       *secret,
		Users:        *users,
		Matches:      *matches,
		UseRealUsers: *realUsers,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		Verbose:      *verbose,
	}

	if _, err := seed.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
