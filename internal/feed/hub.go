// Package feed fans intelligence updates out to live subscribers.
package feed

import (
	"log/slog"
	"sync"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

// Message types sent to subscribers.
const (
	TypeSnapshot = "snapshot"
	TypeUpdate   = "update"
)

const subscriberBuffer = 8

// Update is the state of a session after a turn.
type Update struct {
	Type         string              `json:"type"`
	SessionID    string              `json:"sessionId"`
	Intelligence domain.Intelligence `json:"intelligence"`
	IsScam       bool                `json:"isScam"`
	MessageCount int                 `json:"messageCount"`
	Reported     bool                `json:"reported"`
}

// FromSession builds an update of kind typ for s.
func FromSession(typ string, s *domain.Session) Update {
	return Update{
		Type:         typ,
		SessionID:    s.ID,
		Intelligence: s.Intelligence.Normalize(),
		IsScam:       s.IsScam,
		MessageCount: len(s.Messages),
		Reported:     s.Reported,
	}
}

type subscriber struct {
	ch chan Update
}

// Hub tracks subscribers per session. Slow subscribers miss updates rather
// than stall publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), logger: logger}
}

// Subscribe registers for updates on sessionID. The channel is closed by
// the returned cancel func, by Drop, or by Close.
func (h *Hub) Subscribe(sessionID string) (<-chan Update, func()) {
	sub := &subscriber{ch: make(chan Update, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { h.remove(sessionID, sub) })
	}
}

func (h *Hub) remove(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
}

// Publish delivers u to every subscriber of u.SessionID without blocking.
func (h *Hub) Publish(u Update) {
	if u.Type == "" {
		u.Type = TypeUpdate
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[u.SessionID] {
		select {
		case sub.ch <- u:
		default:
			h.logger.Debug("Feed subscriber lagging, dropping update", "session_id", u.SessionID)
		}
	}
}

// Subscribers returns the number of subscribers for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Drop closes every subscription for sessionID.
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		close(sub.ch)
	}
	delete(h.subs, sessionID)
}

// Close closes every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, id)
	}
}
