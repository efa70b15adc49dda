package domain

// HistoryEntry is one prior turn as supplied by the caller or read back from
// the session log.
type HistoryEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// HistoryFromMessages converts a message log into history entries.
func HistoryFromMessages(msgs []Message) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, HistoryEntry{Sender: m.Sender, Text: m.Text})
	}
	return out
}

// LastHistory returns at most n trailing entries.
func LastHistory(h []HistoryEntry, n int) []HistoryEntry {
	if n <= 0 {
		return nil
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}
