package detect

import (
	"fmt"
	"strings"

	"github.com/ashureev/scam-honeypot/internal/domain"
)

const historyWindow = 10

func (c *Classifier) prompt(message string, history []domain.HistoryEntry, meta domain.Metadata) string {
	var hist strings.Builder
	for _, h := range domain.LastHistory(history, historyWindow) {
		fmt.Fprintf(&hist, "%s: %s\n", h.Sender, h.Text)
	}

	return fmt.Sprintf(`You are an expert scam detection system for India.

SCAM PATTERNS DATABASE:
%s

CONVERSATION HISTORY:
%s
CURRENT MESSAGE:
Sender: scammer
Text: %s
Channel: %s
Language: %s

TASK:
Analyze if this message is a scam attempt. Consider:
1. Urgency tactics ("account blocked", "verify now")
2. Payment requests (UPI, bank account, OTP)
3. Impersonation (banks, government, delivery)
4. Phishing links
5. Indian context (Paytm, PhonePe, SBI, etc.)

OUTPUT FORMAT (JSON only):
{
  "is_scam": true/false,
  "confidence": 0.0-1.0,
  "scam_type": "bank_fraud/upi_scam/phishing/fake_offer/other",
  "indicators": ["urgency", "payment_request"],
  "reasoning": "brief explanation"
}

Respond with ONLY the JSON, no additional text.`, c.corpus, hist.String(), message, meta.Channel, meta.Language)
}
