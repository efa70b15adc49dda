// Package report delivers the final result of an engagement to an external
// evaluation endpoint.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

// Report is the callback payload for a finished engagement.
type Report struct {
	SessionID              string              `json:"sessionId"`
	ScamDetected           bool                `json:"scamDetected"`
	TotalMessagesExchanged int                 `json:"totalMessagesExchanged"`
	ExtractedIntelligence  domain.Intelligence `json:"extractedIntelligence"`
	AgentNotes             string              `json:"agentNotes"`
}

// Sink accepts final reports.
type Sink interface {
	Submit(ctx context.Context, r Report) error
}

// FromSession builds the report for s.
func FromSession(s *domain.Session) Report {
	intel := s.Intelligence.Normalize()
	return Report{
		SessionID:              s.ID,
		ScamDetected:           s.IsScam,
		TotalMessagesExchanged: len(s.Messages),
		ExtractedIntelligence:  intel,
		AgentNotes:             Notes(intel),
	}
}

const maxTactics = 3

// Notes summarises what the engagement collected.
func Notes(intel domain.Intelligence) string {
	var notes []string
	if n := len(intel.BankAccounts); n > 0 {
		notes = append(notes, fmt.Sprintf("Extracted %d bank account(s)", n))
	}
	if n := len(intel.UPIIDs); n > 0 {
		notes = append(notes, fmt.Sprintf("Extracted %d UPI ID(s)", n))
	}
	if len(intel.PhishingLinks) > 0 {
		notes = append(notes, "Phishing links detected")
	}
	tactics := intel.SuspiciousKeywords
	if len(tactics) > maxTactics {
		tactics = tactics[:maxTactics]
	}
	if len(tactics) > 0 {
		notes = append(notes, "Used tactics: "+strings.Join(tactics, ", "))
	}
	if len(notes) == 0 {
		return "Scam engagement completed"
	}
	return strings.Join(notes, "; ")
}

// LogSink writes reports to the structured log. It backs deployments
// without a callback URL.
type LogSink struct {
	Logger *slog.Logger
}

// Submit logs r.
func (s LogSink) Submit(_ context.Context, r Report) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Engagement report",
		"session_id", r.SessionID,
		"scam_detected", r.ScamDetected,
		"messages", r.TotalMessagesExchanged,
		"intelligence_items", r.ExtractedIntelligence.Size(),
		"notes", r.AgentNotes)
	return nil
}
