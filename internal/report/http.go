package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPSink posts reports as JSON to a callback URL.
type HTTPSink struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPSink creates a sink posting to url. A nil client gets a 10s timeout.
func NewHTTPSink(url string, client *http.Client, logger *slog.Logger) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSink{url: url, client: client, logger: logger}
}

// Submit posts r. The Idempotency-Key is derived from the session id, so
// every retry for one session carries the same key. Any non-2xx answer is
// an error.
func (s *HTTPSink) Submit(ctx context.Context, r Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", IdempotencyKey(r.SessionID))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Debug("Failed to close report response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("report callback returned %d: %s", resp.StatusCode, string(b))
	}
	s.logger.Info("Report delivered", "session_id", r.SessionID, "status", resp.StatusCode)
	return nil
}

var (
	_ Sink = (*HTTPSink)(nil)
	_ Sink = LogSink{}
)

// IdempotencyKey is a stable name-based UUID for a session's report.
func IdempotencyKey(sessionID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sessionID)).String()
}
