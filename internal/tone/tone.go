// Package tone classifies the affect of a single counterparty message.
package tone

import (
	"strings"
	"unicode"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

var urgentCues = map[string]bool{
	"urgent": true, "urgently": true, "immediately": true, "now": true,
	"quickly": true, "asap": true, "hurry": true,
}

var angryCues = map[string]bool{
	"stupid": true, "idiot": true, "waste": true, "listen": true,
	"fool": true, "useless": true, "nonsense": true,
}

// Polarity thresholds below/above which a message is negative/positive.
const (
	negativeThreshold = -0.3
	positiveThreshold = 0.3
)

// Classify returns the tone of text. Urgent cues win over angry cues, and both
// win over lexicon polarity.
func Classify(text string) domain.Tone {
	words := tokenize(text)
	for _, w := range words {
		if urgentCues[w] {
			return domain.ToneUrgent
		}
	}
	for _, w := range words {
		if angryCues[w] {
			return domain.ToneAngry
		}
	}
	p := polarityOf(words)
	switch {
	case p < negativeThreshold:
		return domain.ToneNegative
	case p > positiveThreshold:
		return domain.TonePositive
	default:
		return domain.ToneNeutral
	}
}

// Polarity scores text from -1 (negative) to 1 (positive).
func Polarity(text string) float64 {
	return polarityOf(tokenize(text))
}

// polarityOf averages lexicon scores over the scored words. A negator flips
// the next scored word; an intensifier scales it.
func polarityOf(words []string) float64 {
	var sum float64
	var n int
	negate := false
	boost := 1.0
	for _, w := range words {
		if negators[w] {
			negate = true
			continue
		}
		if f, ok := intensifiers[w]; ok {
			boost = f
			continue
		}
		score, ok := lexicon[w]
		if !ok {
			continue
		}
		score *= boost
		if negate {
			score *= -0.5
		}
		sum += score
		n++
		negate = false
		boost = 1.0
	}
	if n == 0 {
		return 0
	}
	p := sum / float64(n)
	return max(-1, min(1, p))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
