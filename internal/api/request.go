package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/engage"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned for bodies that are not valid JSON.
var ErrInvalidBody = errors.New("invalid request body")

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// Timestamp accepts epoch milliseconds (number or string) or a date-time
// string. Anything else decodes to the zero time so the engine's default
// applies; a bad timestamp never rejects a turn.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = parseTimestamp(bytes.TrimSpace(data))
	return nil
}

func parseTimestamp(data []byte) time.Time {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}
	}
	if data[0] != '"' {
		var ms float64
		if err := json.Unmarshal(data, &ms); err != nil {
			slog.Debug("Ignoring malformed timestamp", "raw", string(data))
			return time.Time{}
		}
		return time.UnixMilli(int64(ms)).UTC()
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC()
		}
	}
	slog.Debug("Ignoring malformed timestamp", "raw", s)
	return time.Time{}
}

// MessageBody is the wire form of one message.
type MessageBody struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// MetadataBody is the wire form of message metadata.
type MetadataBody struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// HistoryBody is the wire form of a prior turn. Its timestamp is never used,
// so it is not decoded.
type HistoryBody struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Request is the inbound conversation payload. Every field is optional.
type Request struct {
	SessionID           string        `json:"sessionId"`
	Message             MessageBody   `json:"message"`
	ConversationHistory []HistoryBody `json:"conversationHistory"`
	Metadata            MetadataBody  `json:"metadata"`
}

// DecodeRequest reads a Request. An empty body yields the zero Request.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, nil
		}
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return req, nil
}

// Turn converts the request into an engine turn. Defaults for missing fields
// are applied by the engine.
func (req Request) Turn() engage.Turn {
	history := make([]domain.HistoryEntry, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		if m.Text == "" {
			continue
		}
		history = append(history, domain.HistoryEntry{Sender: m.Sender, Text: m.Text})
	}
	return engage.Turn{
		SessionID: req.SessionID,
		Message: domain.Message{
			Sender:    req.Message.Sender,
			Text:      req.Message.Text,
			Timestamp: req.Message.Timestamp.Time,
		},
		History: history,
		Metadata: domain.Metadata{
			Channel:  req.Metadata.Channel,
			Language: req.Metadata.Language,
			Locale:   req.Metadata.Locale,
		},
	}
}
