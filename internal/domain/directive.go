package domain

// Tone is the detected affect of a single counterparty message.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	ToneUrgent   Tone = "urgent"
	ToneAngry    Tone = "angry"
	ToneNegative Tone = "negative"
	TonePositive Tone = "positive"
)

// DirectiveKind names the behavioural stance for the next reply.
type DirectiveKind string

const (
	DirectiveApologetic       DirectiveKind = "apologetic"
	DirectivePanicked         DirectiveKind = "panicked"
	DirectiveClarifying       DirectiveKind = "clarifying"
	DirectiveTrustingConfused DirectiveKind = "trusting_confused"
	DirectiveComplyingErring  DirectiveKind = "complying_erring"
)

// Directive is recomputed every turn and never persisted.
type Directive struct {
	Kind        DirectiveKind
	Instruction string
}
