package feed

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/scam-honeypot/internal/identity"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

const writeTimeout = 5 * time.Second

// SnapshotFunc returns the current state of a session, or nil when unknown.
type SnapshotFunc func(ctx context.Context, sessionID string) (*Update, error)

// Handler streams a session's intelligence over a WebSocket: one snapshot,
// then an update per processed turn.
type Handler struct {
	hub            *Hub
	snapshot       SnapshotFunc
	originPatterns []string
	logger         *slog.Logger
}

// NewHandler creates a feed handler. originPatterns follow
// websocket.AcceptOptions; empty means same-origin only.
func NewHandler(hub *Hub, snapshot SnapshotFunc, originPatterns []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, snapshot: snapshot, originPatterns: originPatterns, logger: logger}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionKey(chi.URLParam(r, "sessionID"))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("Failed to accept feed WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			h.logger.Debug("Failed to close feed websocket", "error", closeErr)
		}
	}()

	// Subscribe before reading the snapshot so no turn falls between them.
	updates, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	// Clients never send; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := ws.CloseRead(r.Context())

	snap := &Update{Type: TypeSnapshot, SessionID: sessionID}
	if h.snapshot != nil {
		s, err := h.snapshot(ctx, sessionID)
		if err != nil {
			h.logger.Warn("Feed snapshot failed", "error", err, "session_id", sessionID)
			_ = ws.Close(websocket.StatusInternalError, "snapshot unavailable")
			return
		}
		if s != nil {
			snap = s
			snap.Type = TypeSnapshot
		}
	}
	snap.Intelligence = snap.Intelligence.Normalize()
	if err := h.write(ctx, ws, *snap); err != nil {
		return
	}
	h.logger.Info("Feed subscriber connected",
		"session_id", sessionID,
		"ip", identity.IPFromRequest(r),
		"subscribers", h.hub.Subscribers(sessionID),
	)

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(ctx, ws, u); err != nil {
				return
			}
		case <-ctx.Done():
			h.logger.Debug("Feed subscriber disconnected", "session_id", sessionID)
			return
		}
	}
}

func (h *Handler) write(ctx context.Context, ws *websocket.Conn, u Update) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, ws, u); err != nil {
		h.logger.Debug("Feed write failed", "error", err, "session_id", u.SessionID)
		return err
	}
	return nil
}
