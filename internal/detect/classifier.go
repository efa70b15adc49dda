// Package detect decides whether an inbound message is a scam attempt using a
// keyword fast path, a deliberative generation pass, and a rule fallback.
package detect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/llm"
)

// FastPathKeywords trigger the cheap pre-check.
var FastPathKeywords = []string{"otp", "urgent", "verify", "kyc", "blocked", "refund", "upi", "prize", "limit", "suspend"}

// Source names which path produced a verdict.
type Source string

const (
	SourceFastPath Source = "fast_path"
	SourceModel    Source = "model"
	SourceRules    Source = "rules"
)

const (
	noMatchConfidence = 0.2
	maxFastConfidence = 0.95
	classifyMaxTokens = 300
)

// Result is a scam verdict.
type Result struct {
	IsScam     bool    `json:"isScam"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	ScamType   string  `json:"scamType,omitempty"`
}

// Options tune a Classifier.
type Options struct {
	// ShortCircuit skips the generation call when the fast path already
	// flagged the message.
	ShortCircuit bool
	Patterns     *Patterns
}

// Classifier is safe for concurrent use.
type Classifier struct {
	gen      llm.Generator
	patterns *Patterns
	corpus   string
	short    bool
	logger   *slog.Logger
}

// NewClassifier creates a Classifier. gen may be nil to run without the
// deliberative pass.
func NewClassifier(gen llm.Generator, opts Options, logger *slog.Logger) *Classifier {
	if opts.Patterns == nil {
		opts.Patterns = DefaultPatterns()
	}
	if logger == nil {
		logger = slog.Default()
	}
	corpus, err := json.MarshalIndent(opts.Patterns, "", "  ")
	if err != nil {
		corpus = []byte("{}")
	}
	return &Classifier{
		gen:      gen,
		patterns: opts.Patterns,
		corpus:   string(corpus),
		short:    opts.ShortCircuit,
		logger:   logger,
	}
}

// FastPath returns whether any fast-path keyword occurs in message and the
// resulting confidence.
func FastPath(message string) (bool, float64) {
	lower := strings.ToLower(message)
	n := 0
	for _, kw := range FastPathKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	if n == 0 {
		return false, noMatchConfidence
	}
	return true, min(0.5+0.1*float64(n), maxFastConfidence)
}

// Classify never fails. The final flag is the OR of the fast path and the
// deliberative (or rule) verdict.
func (c *Classifier) Classify(ctx context.Context, message string, history []domain.HistoryEntry, meta domain.Metadata) Result {
	fastScam, fastConf := FastPath(message)
	if c.short && fastScam {
		return Result{IsScam: true, Confidence: fastConf, Source: SourceFastPath}
	}

	if c.gen != nil {
		raw, err := c.gen.Complete(ctx, c.prompt(message, history, meta.WithDefaults()), llm.Options{
			Temperature: 0.1,
			MaxTokens:   classifyMaxTokens,
		})
		if err == nil {
			v, perr := ParseVerdict(raw)
			if perr == nil {
				return Result{
					IsScam:     fastScam || *v.IsScam,
					Confidence: *v.Confidence,
					Source:     SourceModel,
					ScamType:   v.ScamType,
				}
			}
			c.logger.Warn("Classifier verdict rejected, using rules", "error", perr)
		}
	}

	return Result{
		IsScam:     fastScam || c.Rules(message),
		Confidence: fastConf,
		Source:     SourceRules,
		ScamType:   "unknown",
	}
}

// Rules applies the keyword fallback: two urgency cues, or a payment cue
// together with an urgency cue.
func (c *Classifier) Rules(message string) bool {
	u, p := c.counts(message)
	return u >= 2 || (p >= 1 && u >= 1)
}

// RuleConfidence is min((urgency+payment)/5, 1).
func (c *Classifier) RuleConfidence(message string) float64 {
	u, p := c.counts(message)
	return min(float64(u+p)/5.0, 1.0)
}

func (c *Classifier) counts(message string) (urgency, payment int) {
	lower := strings.ToLower(message)
	return countContained(lower, c.patterns.UrgencyKeywords), countContained(lower, c.patterns.PaymentKeywords)
}

// Verdict is the structured classification reply. IsScam and Confidence are
// required.
type Verdict struct {
	IsScam     *bool    `json:"is_scam"`
	Confidence *float64 `json:"confidence"`
	ScamType   string   `json:"scam_type"`
	Indicators []string `json:"indicators"`
	Reasoning  string   `json:"reasoning"`
}

// Verdict parse errors.
var (
	ErrNoVerdict     = errors.New("no json object in verdict")
	ErrMissingField  = errors.New("verdict missing required field")
	ErrBadConfidence = errors.New("verdict confidence out of range")
)

// ParseVerdict extracts the JSON object between the first '{' and the last
// '}' of raw and validates it.
func ParseVerdict(raw string) (Verdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Verdict{}, ErrNoVerdict
	}
	var v Verdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if v.IsScam == nil {
		return Verdict{}, fmt.Errorf("%w: is_scam", ErrMissingField)
	}
	if v.Confidence == nil {
		return Verdict{}, fmt.Errorf("%w: confidence", ErrMissingField)
	}
	if *v.Confidence < 0 || *v.Confidence > 1 {
		return Verdict{}, fmt.Errorf("%w: %v", ErrBadConfidence, *v.Confidence)
	}
	return v, nil
}
