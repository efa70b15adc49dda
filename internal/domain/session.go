// Package domain contains core domain types for the honeypot engagement engine.
package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Sender tags for conversation messages.
const (
	SenderScammer = "scammer"
	SenderAgent   = "agent"
	// SenderUser is how callers label the honeypot's own earlier replies.
	SenderUser = "user"
)

// IsOwnSide reports whether sender denotes the honeypot rather than the
// counterparty.
func IsOwnSide(sender string) bool {
	return sender == SenderAgent || sender == SenderUser
}

// RecentFallbackWindow bounds how many generic bait replies a session remembers
// for anti-repetition.
const RecentFallbackWindow = 3

// State is the engagement lifecycle position of a session.
type State string

const (
	StateNew      State = "NEW"
	StateActive   State = "ACTIVE"
	StateReported State = "REPORTED"
)

// Message is a single entry in the conversation log.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage returns a message with a fresh ULID. A zero ts means now.
func NewMessage(sender, text string, ts time.Time) Message {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Message{ID: ulid.Make().String(), Sender: sender, Text: text, Timestamp: ts.UTC()}
}

// Session holds the engagement state for one counterparty conversation.
type Session struct {
	ID              string       `json:"session_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Persona         *Persona     `json:"persona,omitempty"`
	Messages        []Message    `json:"messages"`
	Turns           int          `json:"turns"`
	IsScam          bool         `json:"is_scam"`
	Intelligence    Intelligence `json:"intelligence"`
	Reported        bool         `json:"reported"`
	RecentFallbacks []string     `json:"recent_fallbacks,omitempty"`
}

// NewSession returns an empty session created at now.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle state from the turn counter and terminal flag.
func (s *Session) State() State {
	switch {
	case s.Reported:
		return StateReported
	case s.Turns == 0:
		return StateNew
	default:
		return StateActive
	}
}

// RecordInbound appends a counterparty message and advances the turn counter.
func (s *Session) RecordInbound(msg Message) {
	msg.Sender = SenderScammer
	s.Messages = append(s.Messages, msg)
	s.Turns++
	s.touch(msg.Timestamp)
}

// RecordReply appends an agent reply. It does not count as a turn.
func (s *Session) RecordReply(msg Message) {
	msg.Sender = SenderAgent
	s.Messages = append(s.Messages, msg)
	s.touch(msg.Timestamp)
}

// MarkScam sets the scam flag. The flag is sticky: false never clears it.
func (s *Session) MarkScam(isScam bool) {
	s.IsScam = s.IsScam || isScam
}

// MarkReported flips the terminal flag. It returns false if the flag was
// already set, so callers can gate one-time side effects on the result.
func (s *Session) MarkReported() bool {
	if s.Reported {
		return false
	}
	s.Reported = true
	return true
}

// RememberFallback pushes a generic bait reply into the bounded recent window.
func (s *Session) RememberFallback(text string) {
	if text == "" {
		return
	}
	s.RecentFallbacks = append(s.RecentFallbacks, text)
	if n := len(s.RecentFallbacks); n > RecentFallbackWindow {
		s.RecentFallbacks = append([]string(nil), s.RecentFallbacks[n-RecentFallbackWindow:]...)
	}
}

// Clone returns a deep copy safe to hand out across goroutines.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Persona != nil {
		p := *s.Persona
		c.Persona = &p
	}
	c.Messages = append([]Message(nil), s.Messages...)
	c.RecentFallbacks = append([]string(nil), s.RecentFallbacks...)
	c.Intelligence = s.Intelligence.Clone()
	return &c
}

func (s *Session) touch(ts time.Time) {
	if ts.IsZero() {
		ts = time.Now()
	}
	if ts.After(s.UpdatedAt) {
		s.UpdatedAt = ts
	}
}
