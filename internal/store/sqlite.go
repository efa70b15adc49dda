package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/scam-honeypot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex // serialises read-modify-write to prevent SQLITE_BUSY
	now func() time.Time
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode lets the polling endpoints read while a turn is being written.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		persona_json TEXT,
		messages_json TEXT NOT NULL DEFAULT '[]',
		intelligence_json TEXT NOT NULL DEFAULT '{}',
		recent_fallbacks_json TEXT NOT NULL DEFAULT '[]',
		turns INTEGER NOT NULL DEFAULT 0,
		is_scam INTEGER NOT NULL DEFAULT 0,
		reported INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectSession = `
	SELECT session_id, persona_json, messages_json, intelligence_json,
	       recent_fallbacks_json, turns, is_scam, reported, created_at, updated_at
	FROM sessions WHERE session_id = ?`

func loadSession(ctx context.Context, q rowQuerier, id string) (*domain.Session, error) {
	var (
		sess                             domain.Session
		personaJSON                      sql.NullString
		messagesJSON, intelJSON, recJSON string
		createdAt, updatedAt             int64
	)
	err := q.QueryRowContext(ctx, selectSession, id).Scan(
		&sess.ID, &personaJSON, &messagesJSON, &intelJSON,
		&recJSON, &sess.Turns, &sess.IsScam, &sess.Reported, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if personaJSON.Valid && personaJSON.String != "" {
		var p domain.Persona
		if err := json.Unmarshal([]byte(personaJSON.String), &p); err != nil {
			return nil, fmt.Errorf("decode persona: %w", err)
		}
		sess.Persona = &p
	}
	if err := json.Unmarshal([]byte(messagesJSON), &sess.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if err := json.Unmarshal([]byte(intelJSON), &sess.Intelligence); err != nil {
		return nil, fmt.Errorf("decode intelligence: %w", err)
	}
	if err := json.Unmarshal([]byte(recJSON), &sess.RecentFallbacks); err != nil {
		return nil, fmt.Errorf("decode recent fallbacks: %w", err)
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

func saveSession(ctx context.Context, tx *sql.Tx, sess *domain.Session, now time.Time) error {
	query := `
	INSERT INTO sessions (
		session_id, persona_json, messages_json, intelligence_json,
		recent_fallbacks_json, turns, is_scam, reported, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		persona_json = COALESCE(excluded.persona_json, sessions.persona_json),
		messages_json = excluded.messages_json,
		intelligence_json = excluded.intelligence_json,
		recent_fallbacks_json = excluded.recent_fallbacks_json,
		turns = excluded.turns,
		is_scam = excluded.is_scam,
		reported = excluded.reported,
		updated_at = excluded.updated_at`

	var personaJSON any
	if sess.Persona != nil {
		b, err := json.Marshal(sess.Persona)
		if err != nil {
			return fmt.Errorf("encode persona: %w", err)
		}
		personaJSON = string(b)
	}
	messages, err := marshalOr(sess.Messages, "[]")
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	intel, err := json.Marshal(sess.Intelligence)
	if err != nil {
		return fmt.Errorf("encode intelligence: %w", err)
	}
	recent, err := marshalOr(sess.RecentFallbacks, "[]")
	if err != nil {
		return fmt.Errorf("encode recent fallbacks: %w", err)
	}

	_, err = tx.ExecContext(ctx, query,
		sess.ID, personaJSON, messages, string(intel),
		recent, sess.Turns, sess.IsScam, sess.Reported,
		sess.CreatedAt.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func marshalOr[T any](v []T, empty string) (string, error) {
	if len(v) == 0 {
		return empty, nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

// Update runs fn inside one transaction under the store mutex, retrying on
// SQLITE_BUSY with exponential backoff.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	var out *domain.Session
	err := withConflictRetry(ctx, "update session", func() error {
		sess, err := s.updateOnce(ctx, id, fn)
		if err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) updateOnce(ctx context.Context, id string, fn UpdateFunc) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	sess, err := loadSession(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = domain.NewSession(id, now)
	}
	if err := fn(sess); err != nil {
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}
	if err := saveSession(ctx, tx, sess, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session: %w", err)
	}
	sess.UpdatedAt = time.Unix(now.Unix(), 0)
	return sess, nil
}

// GetOrCreate returns the session for id, creating it if absent.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	return s.Update(ctx, id, noop)
}

// Get retrieves a session, or nil, nil if it does not exist.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return loadSession(ctx, s.db, id)
}

// Append adds msg to the session log.
func (s *SQLiteStore) Append(ctx context.Context, id string, msg domain.Message) error {
	_, err := s.Update(ctx, id, appendFunc(msg))
	return err
}

// DeleteExpired removes sessions not updated within ttl.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := s.now().Add(-ttl).Unix()
	var ids []string
	err := withConflictRetry(ctx, "delete expired sessions", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		ids = ids[:0]
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin sweep: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		rows, err := tx.QueryContext(ctx, `SELECT session_id FROM sessions WHERE updated_at < ?`, threshold)
		if err != nil {
			return fmt.Errorf("select expired sessions: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan expired session: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close expired rows: %w", err)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate expired sessions: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold); err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		slog.Debug("Deleted expired sessions", "count", len(ids))
	}
	return ids, nil
}

// Count returns the number of stored sessions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
