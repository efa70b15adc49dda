package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 5 * time.Minute

// SweepCallback is called with the IDs removed by a sweep that removed any.
type SweepCallback func(ids []string)

// StartSweeper runs a background goroutine that periodically removes sessions
// idle longer than ttl. The returned channel closes once the goroutine has
// exited after ctx is cancelled.
func StartSweeper(ctx context.Context, repo Repository, ttl, interval time.Duration, onSweep SweepCallback) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				Sweep(ctx, repo, ttl, onSweep)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// Sweep performs one expiry pass.
func Sweep(ctx context.Context, repo Repository, ttl time.Duration, onSweep SweepCallback) int {
	ids, err := repo.DeleteExpired(ctx, ttl)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Session sweep interrupted", "error", err)
			return 0
		}
		slog.Error("Session sweeper failed to delete expired sessions", "error", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	slog.Info("Session sweeper removed expired sessions", "count", len(ids))
	if onSweep != nil {
		onSweep(ids)
	}
	return len(ids)
}
