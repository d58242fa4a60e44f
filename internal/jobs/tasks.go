package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hireportal/internal/drafts"
	"github.com/hireportal/internal/ratelimit"
)

// PurgeDrafts removes expired drafts from stores without native expiry
func PurgeDrafts(store drafts.Store, logger *slog.Logger) Task {
	return Task{
		Name:     "purge-expired-drafts",
		Schedule: "@every 15m",
		Run: func(ctx context.Context) error {
			n, err := store.Purge(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged expired drafts", "count", n, "store", store.Name())
			}
			return nil
		},
	}
}

// SweepRateLimiter forgets clients that have been idle for longer than idle
func SweepRateLimiter(limiter *ratelimit.Limiter, idle time.Duration, logger *slog.Logger) Task {
	return Task{
		Name:     "sweep-rate-limiter",
		Schedule: "@every 5m",
		Run: func(ctx context.Context) error {
			if n := limiter.Sweep(idle); n > 0 {
				logger.Debug("swept idle rate limit buckets", "count", n, "remaining", limiter.Len())
			}
			return nil
		},
	}
}
