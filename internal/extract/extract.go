// Package extract scans raw text for identifying artifacts: bank accounts,
// payment handles, phone numbers, links and pressure keywords.
//
// Everything here is deterministic and side-effect free. It is the path the
// engine relies on when the generation service is unavailable.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

// Mode selects how strictly payment handles are filtered.
type Mode int

const (
	// ModeStrict keeps only handles whose domain names a known payment provider.
	ModeStrict Mode = iota
	// ModeLenient keeps every well-formed local@domain token.
	ModeLenient
)

func (m Mode) String() string {
	if m == ModeLenient {
		return "lenient"
	}
	return "strict"
}

// ProviderFragments are substrings of payment-provider handle domains.
var ProviderFragments = []string{
	"paytm", "phonepe", "googlepay", "gpay", "bhim", "upi", "ybl", "ibl", "axl",
	"apl", "sbi", "hdfc", "icici", "axis", "kotak", "okicici", "oksbi", "okaxis",
	"okhdfcbank", "paypal",
}

// Keywords is the suspicious-keyword vocabulary.
var Keywords = []string{
	"urgent", "blocked", "verify", "suspend", "refund", "otp", "kyc", "account",
	"payment", "immediate", "expire", "limited",
}

// Config tunes the extractor. The zero value is not valid; use DefaultConfig.
type Config struct {
	MinAccountDigits int
	MaxAccountDigits int
	Providers        []string
	Keywords         []string
}

// DefaultConfig returns the stock digit range and vocabularies.
func DefaultConfig() Config {
	return Config{
		MinAccountDigits: 9,
		MaxAccountDigits: 18,
		Providers:        ProviderFragments,
		Keywords:         Keywords,
	}
}

var (
	digitRunPattern = regexp.MustCompile(`\d+`)
	phonePattern    = regexp.MustCompile(`\+91[\s-]?[6-9]\d{9}\b|\b[6-9]\d{9}\b`)
	handlePattern   = regexp.MustCompile(`^[\w.\-]+@[\w.\-]+$`)
	urlPattern      = regexp.MustCompile(`https?://\S+`)
)

const trailingPunct = ".,;:!?)]}'\">"

// Extractor runs the pattern scan with a fixed configuration.
type Extractor struct {
	cfg Config
}

// New returns an Extractor. Missing config fields fall back to defaults.
func New(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.MinAccountDigits <= 0 {
		cfg.MinAccountDigits = def.MinAccountDigits
	}
	if cfg.MaxAccountDigits < cfg.MinAccountDigits {
		cfg.MaxAccountDigits = def.MaxAccountDigits
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = def.Providers
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = def.Keywords
	}
	return &Extractor{cfg: cfg}
}

var defaultExtractor = New(DefaultConfig())

// Extract scans text with the default configuration.
func Extract(text string, mode Mode) domain.Intelligence {
	return defaultExtractor.Extract(text, mode)
}

// Extract returns the candidate artifacts found in text.
func (e *Extractor) Extract(text string, mode Mode) domain.Intelligence {
	return domain.Intelligence{
		BankAccounts:       e.BankAccounts(text),
		UPIIDs:             e.Handles(text, mode),
		PhoneNumbers:       Phones(text),
		PhishingLinks:      URLs(text),
		SuspiciousKeywords: e.Keywords(text),
	}.Normalize()
}

// BankAccounts returns whole digit tokens whose length is in the configured range.
// Runs that fall inside a phone number are skipped.
func (e *Extractor) BankAccounts(text string) []string {
	phones := phonePattern.FindAllStringIndex(text, -1)
	var out []string
	for _, loc := range digitRunPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		n := end - start
		if n < e.cfg.MinAccountDigits || n > e.cfg.MaxAccountDigits {
			continue
		}
		if start > 0 && (isWordByte(text[start-1]) || text[start-1] == '+') {
			continue
		}
		if within(phones, start, end) {
			continue
		}
		if end < len(text) && isWordByte(text[end]) {
			continue
		}
		out = append(out, text[start:end])
	}
	return out
}

// Phones returns mobile-format numbers, with or without a +91 prefix.
func Phones(text string) []string {
	matches := phonePattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// Handles returns local@domain tokens. The whole token must have exactly one
// '@', so "a@b@paytm" yields nothing. In ModeStrict the domain must contain
// one of the provider fragments.
func (e *Extractor) Handles(text string, mode Mode) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(text, isHandleSeparator) {
		h := strings.TrimRight(strings.TrimLeft(tok, ".-"), trailingPunct+".-")
		if !strings.Contains(h, "@") || !handlePattern.MatchString(h) || !ValidHandle(h) {
			continue
		}
		if mode == ModeStrict && !e.knownProvider(h) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// URLs returns every http(s) link, minus trailing sentence punctuation.
func URLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if u := NormalizeURL(m); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Keywords returns every vocabulary word contained in text, case-insensitively.
func (e *Extractor) Keywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range e.cfg.Keywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// ValidHandle reports whether s has exactly one '@' with non-empty parts and
// no whitespace.
func ValidHandle(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") || strings.Count(s, "@") != 1 {
		return false
	}
	local, domainPart, _ := strings.Cut(s, "@")
	return local != "" && strings.Trim(domainPart, ".-") != ""
}

// NormalizeURL trims whitespace and trailing punctuation. It returns "" for
// anything that is not an http(s) link.
func NormalizeURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), trailingPunct)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ""
	}
	if strings.ContainsAny(s, " \t\r\n") || strings.HasSuffix(s, "://") {
		return ""
	}
	return s
}

func (e *Extractor) knownProvider(handle string) bool {
	_, domainPart, _ := strings.Cut(strings.ToLower(handle), "@")
	for _, frag := range e.cfg.Providers {
		if strings.Contains(domainPart, frag) {
			return true
		}
	}
	return false
}

func within(spans [][]int, start, end int) bool {
	for _, sp := range spans {
		if start >= sp[0] && end <= sp[1] {
			return true
		}
	}
	return false
}

func isHandleSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(",;:()<>[]{}\"'", r)
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
