// Package strategy picks the behavioural directive for the agent's next reply.
package strategy

import (
	"github.com/ashureev/scam-honeypot/internal/domain"
)

// Turn tier boundaries (inclusive).
const (
	ClarifyingMaxTurn = 3
	TrustingMaxTurn   = 7
)

var instructions = map[domain.DirectiveKind]string{
	domain.DirectiveApologetic:       "Be apologetic, sound flustered and submissive. Keep them on the hook.",
	domain.DirectivePanicked:         "Sound panicked and worried. Ask exactly what needs to be done right now.",
	domain.DirectiveClarifying:       "Show mild interest or confusion and ask a clarifying question.",
	domain.DirectiveTrustingConfused: "Express trust but struggle with the technical steps. Ask for specifics like the UPI ID, account number or link.",
	domain.DirectiveComplyingErring:  "Actively try to comply but make a small mistake so they must explain the details again.",
}

// Select returns the directive for a turn. Rules are checked in order and the
// first match wins: tone overrides the turn-based tiers.
func Select(t domain.Tone, turn int, p *domain.Persona) domain.Directive {
	var kind domain.DirectiveKind
	switch {
	case t == domain.ToneAngry:
		kind = domain.DirectiveApologetic
	case t == domain.ToneUrgent:
		kind = domain.DirectivePanicked
	case turn <= ClarifyingMaxTurn:
		kind = domain.DirectiveClarifying
	case turn <= TrustingMaxTurn:
		kind = domain.DirectiveTrustingConfused
	default:
		kind = domain.DirectiveComplyingErring
	}
	return domain.Directive{Kind: kind, Instruction: instructions[kind] + personaHint(kind, p)}
}

func personaHint(kind domain.DirectiveKind, p *domain.Persona) string {
	if p == nil {
		return ""
	}
	switch p.TechFamiliarity {
	case domain.TechLow:
		if kind == domain.DirectiveTrustingConfused || kind == domain.DirectiveComplyingErring {
			return " Mention you are not good with phones and ask them to go step by step."
		}
		return " You are not comfortable with apps or links."
	case domain.TechHigh:
		return " You know the basics, so ask pointed questions about which app or link to use."
	}
	return ""
}
