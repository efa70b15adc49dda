//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/scam-honeypot/internal/detect"
	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/engage"
	"github.com/ashureev/scam-honeypot/internal/feed"
	"github.com/ashureev/scam-honeypot/internal/intel"
	"github.com/ashureev/scam-honeypot/internal/persona"
	"github.com/ashureev/scam-honeypot/internal/reply"
	"github.com/ashureev/scam-honeypot/internal/report"
	"github.com/ashureev/scam-honeypot/internal/shared"
	"github.com/ashureev/scam-honeypot/internal/store"
)

type fakeEngine struct {
	got engage.Turn
}

func (f *fakeEngine) Handle(_ context.Context, t engage.Turn) engage.Reply {
	f.got = t
	return engage.Reply{Status: engage.StatusSuccess, Text: "Which bank are you calling from?"}
}

func (f *fakeEngine) Intelligence(context.Context, string) (*feed.Update, error) {
	return nil, nil
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("database is locked") }

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterHealth(r)
	h.RegisterRoutes(r)
	return r
}

func newRealEngine(t *testing.T) *engage.Engine {
	t.Helper()
	rng := shared.NewRand(7)
	personas, err := persona.Default(rng)
	require.NoError(t, err)
	return engage.New(engage.Config{
		Store:       store.NewMemory(0),
		Classifier:  detect.NewClassifier(nil, detect.Options{}, nil),
		Accumulator: intel.NewAccumulator(nil, nil, nil),
		Composer:    reply.NewComposer(nil, rng, nil),
		Personas:    personas,
		Sink:        report.LogSink{},
	})
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestTimestampForms(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 1, 21, 14, 15, 30, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"epoch millis", `1769004930000`, want},
		{"epoch millis as string", `"1769004930000"`, want},
		{"rfc3339", `"2026-01-21T14:15:30Z"`, want},
		{"rfc3339 with offset", `"2026-01-21T19:45:30+05:30"`, want},
		{"no zone", `"2026-01-21T14:15:30"`, want},
		{"space separated", `"2026-01-21 14:15:30"`, want},
		{"null", `null`, time.Time{}},
		{"empty string", `""`, time.Time{}},
		{"words", `"yesterday"`, time.Time{}},
		{"object", `{"ms": 1}`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestConverseToleratesBadTimestamps(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"sessionId":"a","message":{"text":"hi","timestamp":"2024-01-01 10:00:00"}}`,
		`{"sessionId":"a","message":{"text":"hi","timestamp":"soon"}}`,
		`{"sessionId":"a","message":{"text":"hi"},"conversationHistory":[{"sender":"scammer","text":"hello","timestamp":"yesterday"}]}`,
	}
	for _, body := range bodies {
		eng := &fakeEngine{}
		w := httptest.NewRecorder()
		newRouter(NewHandler(eng, nil, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/honeypot", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.Equal(t, "hi", eng.got.Message.Text, body)
	}

	eng := &fakeEngine{}
	w := httptest.NewRecorder()
	newRouter(NewHandler(eng, nil, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/honeypot", strings.NewReader(bodies[1])))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, eng.got.Message.Timestamp.IsZero(), "unparseable timestamps fall back to the engine default")
}

func TestConverseMapsRequest(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	srv := newRouter(NewHandler(eng, nil, nil))

	body := `{
		"sessionId": "wertyu-dfghj-ertyui",
		"message": {"sender": "scammer", "text": "Your account will be blocked today.", "timestamp": 1769004930000},
		"conversationHistory": [
			{"sender": "scammer", "text": "Hello sir", "timestamp": 1769004900000},
			{"sender": "user", "text": "Who is this?", "timestamp": 1769004910000}
		],
		"metadata": {"channel": "WhatsApp", "language": "English", "locale": "IN"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/honeypot", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{"status": "success", "reply": "Which bank are you calling from?"}, resp)

	assert.Equal(t, "wertyu-dfghj-ertyui", eng.got.SessionID)
	assert.Equal(t, "Your account will be blocked today.", eng.got.Message.Text)
	assert.Equal(t, int64(1769004930000), eng.got.Message.Timestamp.UnixMilli())
	assert.Equal(t, []domain.HistoryEntry{
		{Sender: "scammer", Text: "Hello sir"},
		{Sender: "user", Text: "Who is this?"},
	}, eng.got.History)
	assert.Equal(t, "WhatsApp", eng.got.Metadata.Channel)
}

func TestConverseBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"empty body", "/honeypot", "", http.StatusOK},
		{"empty object", "/api/scam-detection", "{}", http.StatusOK},
		{"malformed json", "/honeypot", `{"message": `, http.StatusBadRequest},
		{"wrong type", "/honeypot", `{"message": "hi"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRouter(NewHandler(&fakeEngine{}, nil, nil))
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSessionIntelligenceRoundTrip(t *testing.T) {
	t.Parallel()

	srv := newRouter(NewHandler(newRealEngine(t), nil, nil))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session-intelligence/nobody", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"error","error":"session not found"}`, w.Body.String())

	body := `{"sessionId":"poll-1","message":{"text":"URGENT verify KYC now, pay to fixit@ybl"}}`
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/honeypot", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session-intelligence/poll-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got IntelligenceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "success", got.Status)
	assert.True(t, got.IsScam)
	assert.Equal(t, 2, got.MessageCount)
	assert.Equal(t, []string{"fixit@ybl"}, got.Intelligence.UPIIDs)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newRouter(NewHandler(&fakeEngine{}, nil, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newRouter(NewHandler(&fakeEngine{}, downStore{}, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
