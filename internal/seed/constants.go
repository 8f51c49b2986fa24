package seed

import "time"

// Request sizes accepted by the admin endpoints.
const (
	UserChunkSize  = 100
	MatchChunkSize = 50
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Run configuration constants.
const (
	SeedAdminID   = "seed-admin"
	DefaultTopN   = 50
	MaxTopN       = 100
	ReportEvery   = time.Second
	PercentFactor = 100
)
