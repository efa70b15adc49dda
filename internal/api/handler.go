// Package api provides HTTP handlers for the honeypot API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/engage"
	"github.com/ashureev/scam-honeypot/internal/feed"
)

// Engine is the conversation surface the handlers drive.
type Engine interface {
	Handle(ctx context.Context, t engage.Turn) engage.Reply
	Intelligence(ctx context.Context, sessionID string) (*feed.Update, error)
}

// Pinger reports store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the conversation and polling routes.
type Handler struct {
	engine Engine
	store  Pinger
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(engine Engine, store Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, store: store, logger: logger}
}

// RegisterRoutes registers the authenticated API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/honeypot", h.Converse)
	r.Route("/api", func(r chi.Router) {
		r.Post("/scam-detection", h.Converse)
		r.Get("/session-intelligence/{sessionID}", h.SessionIntelligence)
	})
}

// RegisterHealth registers the public JSON health route.
func (h *Handler) RegisterHealth(r chi.Router) {
	r.Get("/healthz", h.Healthz)
}

// Converse handles one inbound counterparty message.
func (h *Handler) Converse(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Rejected request body", "error", err)
		Error(w, http.StatusBadRequest, ErrInvalidBody.Error())
		return
	}
	JSON(w, http.StatusOK, h.engine.Handle(r.Context(), req.Turn()))
}

// IntelligenceResponse is the polling payload.
type IntelligenceResponse struct {
	Status       string              `json:"status"`
	Intelligence domain.Intelligence `json:"intelligence"`
	IsScam       bool                `json:"isScam"`
	MessageCount int                 `json:"messageCount"`
}

// SessionIntelligence returns the evidence collected for a session.
func (h *Handler) SessionIntelligence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	u, err := h.engine.Intelligence(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if u == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, IntelligenceResponse{
		Status:       engage.StatusSuccess,
		Intelligence: u.Intelligence,
		IsScam:       u.IsScam,
		MessageCount: u.MessageCount,
	})
}

// Healthz reports service and store health.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy", "store": "ok"}
	code := http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.logger.Warn("Store health check failed", "error", err)
			status["status"] = "degraded"
			status["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	JSON(w, code, status)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"status": "error", "error": message})
}
