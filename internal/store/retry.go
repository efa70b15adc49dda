package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/scam-honeypot/internal/shared"
)

const (
	conflictRetries   = 3
	conflictBaseDelay = 50 * time.Millisecond
)

// withConflictRetry runs fn, retrying with exponential backoff (50ms, 100ms)
// while it fails with SQLITE_BUSY or a locked database.
func withConflictRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = fn()
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i == conflictRetries-1 {
			break
		}
		delay := conflictBaseDelay * time.Duration(1<<i)
		slog.Debug("Database busy, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", op, conflictRetries, err)
}
