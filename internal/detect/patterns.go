package detect

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// Example is a labelled scam message.
type Example struct {
	Text string `yaml:"text" json:"text"`
	Type string `yaml:"type" json:"type"`
}

// Patterns is the reference corpus for classification.
type Patterns struct {
	ScamExamples    []Example `yaml:"scam_examples" json:"scam_examples"`
	HamExamples     []string  `yaml:"ham_examples" json:"ham_examples"`
	UrgencyKeywords []string  `yaml:"urgency_keywords" json:"urgency_keywords"`
	PaymentKeywords []string  `yaml:"payment_keywords" json:"payment_keywords"`
}

// LoadPatterns parses a YAML corpus. Both keyword lists are required.
func LoadPatterns(data []byte) (*Patterns, error) {
	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}
	if len(p.UrgencyKeywords) == 0 || len(p.PaymentKeywords) == 0 {
		return nil, fmt.Errorf("parse patterns: urgency and payment keyword lists are required")
	}
	for i, kw := range p.UrgencyKeywords {
		p.UrgencyKeywords[i] = strings.ToLower(kw)
	}
	for i, kw := range p.PaymentKeywords {
		p.PaymentKeywords[i] = strings.ToLower(kw)
	}
	return &p, nil
}

// DefaultPatterns returns the embedded corpus.
func DefaultPatterns() *Patterns {
	p, err := LoadPatterns(defaultPatterns)
	if err != nil {
		panic(err)
	}
	return p
}

func countContained(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
