package strategy

import (
	"strings"
	"testing"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSelectOrdering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tone domain.Tone
		turn int
		want domain.DirectiveKind
	}{
		{"angry overrides late turn", domain.ToneAngry, 10, domain.DirectiveApologetic},
		{"angry overrides early turn", domain.ToneAngry, 1, domain.DirectiveApologetic},
		{"urgent", domain.ToneUrgent, 5, domain.DirectivePanicked},
		{"neutral first turn", domain.ToneNeutral, 1, domain.DirectiveClarifying},
		{"tier boundary 3", domain.ToneNeutral, 3, domain.DirectiveClarifying},
		{"tier boundary 4", domain.TonePositive, 4, domain.DirectiveTrustingConfused},
		{"tier boundary 7", domain.ToneNegative, 7, domain.DirectiveTrustingConfused},
		{"late turn", domain.ToneNeutral, 8, domain.DirectiveComplyingErring},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.tone, tt.turn, nil)
			assert.Equal(t, tt.want, got.Kind)
			assert.NotEmpty(t, got.Instruction)
		})
	}
}

func TestSelectPersonaHint(t *testing.T) {
	t.Parallel()

	low := &domain.Persona{TechFamiliarity: domain.TechLow}
	got := Select(domain.ToneNeutral, 5, low)
	assert.True(t, strings.Contains(got.Instruction, "step by step"))

	plain := Select(domain.ToneNeutral, 5, &domain.Persona{TechFamiliarity: domain.TechMedium})
	assert.Equal(t, instructions[domain.DirectiveTrustingConfused], plain.Instruction)
}
