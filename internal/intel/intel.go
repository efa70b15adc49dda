// Package intel accumulates evidence from a conversation window using a
// structured generation pass and the deterministic extractor.
package intel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/extract"
	"github.com/ashureev/scam-honeypot/internal/llm"
)

const extractionMaxTokens = 800

// ErrNoJSON is returned when a completion carries no JSON object.
var ErrNoJSON = errors.New("no json object in completion")

// Extraction holds the per-source results for one window. Structured is nil
// when the generation pass failed or returned something unusable.
type Extraction struct {
	Structured *domain.Intelligence
	Regex      domain.Intelligence
}

// Accumulator runs both extraction sources.
type Accumulator struct {
	gen       llm.Generator
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewAccumulator creates an Accumulator. gen may be nil to run regex-only.
func NewAccumulator(gen llm.Generator, extractor *extract.Extractor, logger *slog.Logger) *Accumulator {
	if extractor == nil {
		extractor = extract.New(extract.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{gen: gen, extractor: extractor, logger: logger}
}

// Extract runs the structured source and then the regex source on transcript.
// The regex pass is strict when the structured pass succeeded and lenient
// otherwise.
func (a *Accumulator) Extract(ctx context.Context, transcript string) Extraction {
	var out Extraction
	if a.gen != nil && strings.TrimSpace(transcript) != "" {
		rec, err := a.structured(ctx, transcript)
		if err != nil {
			a.logger.Warn("Structured extraction failed, widening regex pass", "error", err)
		} else {
			out.Structured = &rec
		}
	}

	mode := extract.ModeLenient
	if out.Structured != nil {
		mode = extract.ModeStrict
	}
	out.Regex = a.extractor.Extract(transcript, mode)
	return out
}

// Merge unions record with every source present in x.
func Merge(record domain.Intelligence, x Extraction) domain.Intelligence {
	merged := record.Merge(x.Regex)
	if x.Structured != nil {
		merged = merged.Merge(*x.Structured)
	}
	return merged
}

// Transcript joins the counterparty's lines of history with the current
// message, one line each.
func Transcript(history []domain.HistoryEntry, current string) string {
	var lines []string
	for _, h := range history {
		if domain.IsOwnSide(h.Sender) {
			continue
		}
		lines = append(lines, h.Text)
	}
	if current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}

type structuredPayload struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

func (a *Accumulator) structured(ctx context.Context, transcript string) (domain.Intelligence, error) {
	raw, err := a.gen.Complete(ctx, buildPrompt(transcript), llm.Options{
		Temperature: 0,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		return domain.Intelligence{}, err
	}
	return ParseStructured(raw)
}

// ParseStructured decodes a structured extraction completion. Handles must
// have a valid shape and links are normalised; anything else is dropped.
func ParseStructured(raw string) (domain.Intelligence, error) {
	body, err := jsonObject(stripFences(raw))
	if err != nil {
		return domain.Intelligence{}, err
	}
	var p structuredPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return domain.Intelligence{}, fmt.Errorf("decode extraction: %w", err)
	}

	rec := domain.Intelligence{
		BankAccounts:       digitsOnly(p.BankAccounts),
		PhoneNumbers:       p.PhoneNumbers,
		SuspiciousKeywords: lower(p.SuspiciousKeywords),
	}
	for _, h := range p.UPIIDs {
		if extract.ValidHandle(h) {
			rec.UPIIDs = append(rec.UPIIDs, strings.TrimSpace(h))
		}
	}
	for _, l := range p.PhishingLinks {
		if u := extract.NormalizeURL(l); u != "" {
			rec.PhishingLinks = append(rec.PhishingLinks, u)
		}
	}
	return rec.Normalize(), nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func jsonObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// digitsOnly drops separators the model may keep ("XXXX-XXXX") and any entry
// that is not all digits afterwards.
func digitsOnly(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s))
		if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
