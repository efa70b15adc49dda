// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

// ErrEmptySessionID is returned when a session key is blank.
var ErrEmptySessionID = errors.New("session id is required")

// UpdateFunc mutates a session in place. Returning an error discards the
// mutation. It may be called more than once if the backend retries.
type UpdateFunc func(s *domain.Session) error

// Repository defines the interface for persisting engagement sessions.
// Implementations return copies; callers never share internal state.
type Repository interface {
	// GetOrCreate returns the session for id, creating an empty one if absent.
	GetOrCreate(ctx context.Context, id string) (*domain.Session, error)

	// Get returns the session for id, or nil, nil if it does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Update applies fn atomically to the session for id, creating it first
	// if absent, and returns the stored result.
	Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Session, error)

	// Append adds a message to the session log. Counterparty messages
	// advance the turn counter.
	Append(ctx context.Context, id string, msg domain.Message) error

	// DeleteExpired removes sessions not updated within ttl and returns
	// their IDs.
	DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

func appendFunc(msg domain.Message) UpdateFunc {
	return func(s *domain.Session) error {
		if msg.Sender == domain.SenderAgent {
			s.RecordReply(msg)
		} else {
			s.RecordInbound(msg)
		}
		return nil
	}
}

func noop(*domain.Session) error { return nil }

var (
	_ Repository = (*MemoryStore)(nil)
	_ Repository = (*SQLiteStore)(nil)
)
