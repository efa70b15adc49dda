package reply

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

// HistoryWindow is how many prior turns are embedded in the reply prompt.
const HistoryWindow = 5

func buildPrompt(in Input) string {
	p := in.Persona
	var b strings.Builder

	fmt.Fprintf(&b, "You are roleplaying as %s, a real person who is currently being targeted by a scammer.\n", p.Name)
	b.WriteString("Be a believable victim: busy, confused, worried or overly helpful depending on the situation. ")
	b.WriteString("Never repeat the same phrase twice and adapt to the scammer's intensity.\n\n")

	b.WriteString("PERSONA PROFILE:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	if p.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	}
	fmt.Fprintf(&b, "- Background: %s\n", p.Background)
	fmt.Fprintf(&b, "- Tech level: %s\n", p.TechFamiliarity)
	fmt.Fprintf(&b, "- Speech style: %s\n\n", p.SpeechPattern)

	b.WriteString("CURRENT CONTEXT:\n")
	fmt.Fprintf(&b, "- Scammer's tone: %s\n", in.Tone)
	fmt.Fprintf(&b, "- Strategy: %s\n", in.Directive.Instruction)
	fmt.Fprintf(&b, "- Conversation turn: %d\n\n", in.Turn)

	b.WriteString("RECENT HISTORY:\n")
	window := domain.LastHistory(in.History, HistoryWindow)
	if len(window) == 0 {
		b.WriteString("(none)\n")
	}
	for _, h := range window {
		fmt.Fprintf(&b, "%s: %s\n", h.Sender, h.Text)
	}

	fmt.Fprintf(&b, "\nTHE SCAMMER JUST SAID:\n%q\n\n", in.Message)

	b.WriteString("INSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. %s\n", languageInstruction(in.Language))
	fmt.Fprintf(&b, "2. Stay fully in character. Use the speech style: %s.\n", p.SpeechPattern)
	b.WriteString("3. Never reveal you are an AI or that you suspect a scam.\n")
	b.WriteString("4. Subtly make them explain technical details such as the UPI ID, account number or link.\n")
	b.WriteString("5. If they ask for money, do not send it, but sound like you are trying to.\n")
	b.WriteString("6. Keep it short: one sentence of 3 to 15 words, like a real mobile chat message.\n\n")
	fmt.Fprintf(&b, "Response (as %s):", p.Name)
	return b.String()
}

func languageInstruction(lang string) string {
	if lang == "" {
		lang = "English"
	}
	s := fmt.Sprintf("Respond in %s.", lang)
	if strings.EqualFold(lang, "Hindi") {
		s += " Use natural, conversational Hindi (Hinglish if it suits the persona)."
	}
	return s
}

// labelThreshold is the longest prefix treated as an echoed role label.
const labelThreshold = 20

// Clean strips wrapping quotes and a leading "Label:" echoed by the generator.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'")
	if label, rest, ok := strings.Cut(text, ":"); ok && isLabel(label) {
		text = strings.TrimSpace(rest)
		text = strings.Trim(text, "\"'")
	}
	return strings.Join(strings.Fields(text), " ")
}

// isLabel reports whether prefix looks like a single-word role tag such as
// "Response" or "Kamala", not the start of a sentence or a clock time.
func isLabel(prefix string) bool {
	if prefix == "" || len(prefix) >= labelThreshold {
		return false
	}
	return !strings.ContainsFunc(prefix, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsDigit(r)
	})
}
