// Package reply turns a directive and persona into the agent's outward
// message, falling back to a local bait bank when generation is unavailable.
package reply

import (
	"context"
	"log/slog"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/llm"
	"github.com/ashureev/scam-honeypot/internal/shared"
)

// Generation parameters for conversational replies.
const (
	replyTemperature = 0.8
	replyMaxTokens   = 200
)

// Input carries everything needed to phrase one reply.
type Input struct {
	Message         string
	History         []domain.HistoryEntry
	Persona         domain.Persona
	Directive       domain.Directive
	Tone            domain.Tone
	Turn            int
	Language        string
	RecentFallbacks []string
}

// Output is the composed reply and how it was produced.
type Output struct {
	Text     string
	Fallback bool
	Topic    Topic
}

// Composer builds generation requests and post-processes completions.
type Composer struct {
	gen    llm.Generator
	rng    *shared.Rand
	logger *slog.Logger
}

// NewComposer creates a Composer. gen may be nil, in which case every reply
// comes from the bait bank.
func NewComposer(gen llm.Generator, rng *shared.Rand, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = shared.NewRand(0)
	}
	return &Composer{gen: gen, rng: rng, logger: logger}
}

// Compose never fails: any generation problem yields a topic-aware bait reply.
func (c *Composer) Compose(ctx context.Context, in Input) Output {
	if c.gen != nil {
		raw, err := c.gen.Complete(ctx, buildPrompt(in), llm.Options{
			Temperature: replyTemperature,
			MaxTokens:   replyMaxTokens,
		})
		if err == nil {
			if text := Clean(raw); text != "" {
				return Output{Text: text}
			}
			c.logger.Warn("Generated reply was empty after cleanup", "raw_length", len(raw))
		} else {
			c.logger.Info("Reply generation unavailable, using bait bank", "kind", llm.KindOf(err))
		}
	}
	return c.Fallback(in)
}

// Fallback returns a locally computed reply for in.
func (c *Composer) Fallback(in Input) Output {
	text, topic := Bait(c.rng, in.Message, in.RecentFallbacks)
	if text == "" {
		text = ConfusedReply
	}
	return Output{Text: text, Fallback: true, Topic: topic}
}
