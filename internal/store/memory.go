package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

// DefaultMaxSessions caps an in-memory store when no limit is configured.
const DefaultMaxSessions = 10000

type memEntry struct {
	mu   sync.Mutex
	sess *domain.Session

	// guarded by MemoryStore.mu
	touched time.Time
	removed bool
}

// MemoryStore implements Repository in process memory. Updates to one session
// are serialised; different sessions proceed in parallel. When full, the
// least recently updated session is evicted.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	max     int
	now     func() time.Time
}

// NewMemory creates an in-memory repository holding at most maxSessions.
func NewMemory(maxSessions int) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &MemoryStore{
		entries: make(map[string]*memEntry),
		max:     maxSessions,
		now:     time.Now,
	}
}

// entry returns the live entry for id, creating it when create is set.
func (m *MemoryStore) entry(id string, create bool) *memEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[id]; ok {
		return e
	}
	if !create {
		return nil
	}
	if len(m.entries) >= m.max {
		m.evictOldestLocked()
	}
	now := m.now()
	e := &memEntry{sess: domain.NewSession(id, now), touched: now}
	m.entries[id] = e
	return e
}

func (m *MemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   *memEntry
	)
	for id, e := range m.entries {
		if oldest == nil || e.touched.Before(oldest.touched) {
			oldestID, oldest = id, e
		}
	}
	if oldest != nil {
		oldest.removed = true
		delete(m.entries, oldestID)
		slog.Debug("Evicted least recently used session", "session_id", oldestID)
	}
}

func (m *MemoryStore) isRemoved(e *memEntry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.removed
}

// Update applies fn to a copy of the session and stores it if fn succeeds.
func (m *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := m.entry(id, true)
		e.mu.Lock()
		if m.isRemoved(e) {
			// Evicted or swept between lookup and lock.
			e.mu.Unlock()
			continue
		}

		next := e.sess.Clone()
		if err := fn(next); err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("update session %s: %w", id, err)
		}
		e.sess = next

		m.mu.Lock()
		e.touched = m.now()
		m.mu.Unlock()

		out := next.Clone()
		e.mu.Unlock()
		return out, nil
	}
}

// GetOrCreate returns the session for id, creating it if absent.
func (m *MemoryStore) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	return m.Update(ctx, id, noop)
}

// Get returns a copy of the session for id, or nil if absent.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	e := m.entry(id, false)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if m.isRemoved(e) {
		return nil, nil
	}
	return e.sess.Clone(), nil
}

// Append adds msg to the session log.
func (m *MemoryStore) Append(ctx context.Context, id string, msg domain.Message) error {
	_, err := m.Update(ctx, id, appendFunc(msg))
	return err
}

// DeleteExpired removes sessions whose last update is older than ttl.
func (m *MemoryStore) DeleteExpired(_ context.Context, ttl time.Duration) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	threshold := m.now().Add(-ttl)
	var ids []string
	for id, e := range m.entries {
		if e.touched.Before(threshold) {
			e.removed = true
			delete(m.entries, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close drops every session.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.removed = true
	}
	m.entries = make(map[string]*memEntry)
	return nil
}
