package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Observer is told the outcome of every guarded call. The health server uses
// it to publish generation availability.
type Observer interface {
	ObserveGeneration(ok bool, kind Kind)
}

// Guard bounds every completion with a timeout, normalises errors to *Error
// and reports outcomes to an optional Observer.
type Guard struct {
	next     Generator
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
}

// NewGuard wraps next. A non-positive timeout disables the bound.
func NewGuard(next Generator, timeout time.Duration, observer Observer, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{next: next, timeout: timeout, observer: observer, logger: logger}
}

// WithTimeout returns a copy of g with a different bound.
func (g *Guard) WithTimeout(d time.Duration) *Guard {
	c := *g
	c.timeout = d
	return &c
}

// Complete calls the wrapped generator under the guard's timeout.
func (g *Guard) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.next.Complete(ctx, prompt, opts)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = &Error{Kind: KindTransient, Err: err}
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e = &Error{Kind: KindTransient, Err: context.DeadlineExceeded}
		}
		g.logger.Warn("Generation call failed",
			"kind", e.Kind,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", e.Err,
		)
		g.observe(false, e.Kind)
		return "", e
	}
	g.observe(true, "")
	return text, nil
}

func (g *Guard) observe(ok bool, kind Kind) {
	if g.observer != nil {
		g.observer.ObserveGeneration(ok, kind)
	}
}
