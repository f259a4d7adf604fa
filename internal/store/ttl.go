package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the TTL worker sweeps when no interval
// is configured.
const DefaultSweepInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically deletes
// problems older than ttl. A non-positive ttl disables the worker and the
// registry grows without bound.
func StartTTLWorker(ctx context.Context, repo Repository, ttl, interval time.Duration) {
	if ttl <= 0 {
		slog.Info("TTL worker disabled, problem registry is unbounded")
		return
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepExpired(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpired(ctx context.Context, repo Repository, ttl time.Duration) {
	deleted, err := repo.DeleteExpired(ctx, ttl)
	if err != nil {
		slog.Error("TTL worker failed to delete expired problems", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("TTL worker removed expired problems", "count", deleted)
	}
}
