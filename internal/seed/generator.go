package seed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hotstinder/hotstinder/pkg/logger"
)

// chunks splits total into request sizes no larger than size.
func chunks(total, size int) []int {
	if total <= 0 || size <= 0 {
		return nil
	}
	out := make([]int, 0, (total+size-1)/size)
	for total > 0 {
		n := min(total, size)
		out = append(out, n)
		total -= n
	}
	return out
}

// createUsers creates synthetic users chunk by chunk.
func createUsers(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	log := logger.Get().Named("seed")
	stats.UsersRequested = config.Users

	for i, n := range chunks(config.Users, UserChunkSize) {
		resp, err := client.generateUsers(ctx, n)
		if err != nil {
			stats.RequestsFailed++
			return fmt.Errorf("user chunk %d: %w", i, err)
		}
		stats.UsersCreated += resp.Created
		if config.Verbose {
			log.Debug(ctx, "user chunk created", logger.Int("chunk", i), logger.Int("created", resp.Created))
		}
	}

	log.Info(ctx, "synthetic users created", logger.Int("created", stats.UsersCreated))
	return nil
}

// generateMatches submits match chunks concurrently using a worker pool.
func generateMatches(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	log := logger.Get().Named("seed")
	parts := chunks(config.Matches, MatchChunkSize)
	stats.MatchesRequested = config.Matches

	var (
		created    int64
		failed     int64
		reqFailed  int64
		lastReport atomic.Int64
		firstErr   error
		errOnce    sync.Once
	)

	workers := max(1, min(config.Workers, len(parts)))
	partChan := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range partChan {
				resp, err := client.generateMatches(ctx, n, config.UseRealUsers)
				if err != nil {
					atomic.AddInt64(&reqFailed, 1)
					errOnce.Do(func() { firstErr = err })
					continue
				}
				atomic.AddInt64(&created, int64(resp.Created))
				atomic.AddInt64(&failed, int64(resp.Failed))

				now := time.Now().UnixNano()
				if last := lastReport.Load(); now-last >= int64(ReportEvery) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "match generation progress",
						logger.Int("created", int(atomic.LoadInt64(&created))),
						logger.Int("requested", config.Matches))
				}
			}
		}()
	}

	go func() {
		defer close(partChan)
		for _, n := range parts {
			select {
			case <-ctx.Done():
				return
			case partChan <- n:
			}
		}
	}()

	wg.Wait()

	stats.MatchesCreated = int(atomic.LoadInt64(&created))
	stats.MatchesFailed = int(atomic.LoadInt64(&failed))
	stats.RequestsFailed += int(atomic.LoadInt64(&reqFailed))

	log.Info(ctx, "match generation completed",
		logger.Int("created", stats.MatchesCreated),
		logger.Int("failed", stats.MatchesFailed),
		logger.Int("failedRequests", int(reqFailed)))

	if firstErr != nil && stats.MatchesCreated == 0 {
		return firstErr
	}
	return ctx.Err()
}
