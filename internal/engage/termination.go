package engage

import "github.com/ashureev/scam-honeypot/internal/domain"

// Default termination thresholds.
const (
	DefaultMinTurns = 8
	DefaultMaxTurns = 20
)

// Policy decides when an engagement has collected enough to report.
type Policy struct {
	// MinTurns is the earliest turn at which actionable evidence ends the
	// engagement.
	MinTurns int
	// MaxTurns ends the engagement regardless of evidence.
	MaxTurns int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{MinTurns: DefaultMinTurns, MaxTurns: DefaultMaxTurns}
}

// ShouldEnd reports whether s has a bank account, handle or link and has
// run at least MinTurns, or has run MaxTurns.
func (p Policy) ShouldEnd(s *domain.Session) bool {
	if s.Turns >= p.MaxTurns {
		return true
	}
	return s.Intelligence.HasActionable() && s.Turns >= p.MinTurns
}
