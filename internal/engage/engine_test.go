package engage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/scam-honeypot/internal/convlog"
	"github.com/ashureev/scam-honeypot/internal/detect"
	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/feed"
	"github.com/ashureev/scam-honeypot/internal/identity"
	"github.com/ashureev/scam-honeypot/internal/intel"
	"github.com/ashureev/scam-honeypot/internal/llm"
	"github.com/ashureev/scam-honeypot/internal/persona"
	"github.com/ashureev/scam-honeypot/internal/reply"
	"github.com/ashureev/scam-honeypot/internal/report"
	"github.com/ashureev/scam-honeypot/internal/shared"
	"github.com/ashureev/scam-honeypot/internal/store"
)

const scamText = "URGENT: your account is blocked. Pay the fee to rahul@paytm now"

type recordingSink struct {
	mu      sync.Mutex
	reports []report.Report
}

func (s *recordingSink) Submit(_ context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *recordingSink) all() []report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.Report(nil), s.reports...)
}

type recordingLog struct {
	mu     sync.Mutex
	events []convlog.Event
}

func (l *recordingLog) Log(e convlog.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingLog) Close() error { return nil }

type failingStore struct {
	store.Repository
}

func (failingStore) Update(context.Context, string, store.UpdateFunc) (*domain.Session, error) {
	return nil, errors.New("disk full")
}

func newEngine(t *testing.T, gen llm.Generator, repo store.Repository) (*Engine, *recordingSink, *recordingLog) {
	t.Helper()
	rng := shared.NewRand(42)
	personas, err := persona.Default(rng)
	require.NoError(t, err)
	sink := &recordingSink{}
	logs := &recordingLog{}
	if repo == nil {
		repo = store.NewMemory(0)
	}
	e := New(Config{
		Store:       repo,
		Classifier:  detect.NewClassifier(gen, detect.Options{}, nil),
		Accumulator: intel.NewAccumulator(gen, nil, nil),
		Composer:    reply.NewComposer(gen, rng, nil),
		Personas:    personas,
		Sink:        sink,
		Feed:        feed.NewHub(nil),
		ConvLog:     logs,
	})
	return e, sink, logs
}

func turn(id, text string) Turn {
	return Turn{SessionID: id, Message: domain.Message{Sender: domain.SenderScammer, Text: text}}
}

func TestPolicyShouldEnd(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	evidence := domain.Intelligence{UPIIDs: []string{"rahul@paytm"}}
	keywordsOnly := domain.Intelligence{SuspiciousKeywords: []string{"urgent"}}

	tests := []struct {
		name  string
		turns int
		intel domain.Intelligence
		want  bool
	}{
		{"evidence before min turns", 7, evidence, false},
		{"evidence at min turns", 8, evidence, true},
		{"keywords are not actionable", 12, keywordsOnly, false},
		{"max turns without evidence", 20, domain.Intelligence{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.Session{Turns: tt.turns, Intelligence: tt.intel}
			if got := p.ShouldEnd(s); got != tt.want {
				t.Fatalf("ShouldEnd() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleReportsOnceAtMinTurns(t *testing.T) {
	t.Parallel()

	e, sink, _ := newEngine(t, nil, nil)
	ctx := context.Background()

	for i := 1; i <= DefaultMinTurns-1; i++ {
		r := e.Handle(ctx, turn("s1", scamText))
		require.Equal(t, StatusSuccess, r.Status)
		require.NotEmpty(t, r.Text)
	}
	assert.Empty(t, sink.all(), "no report before the minimum turn count")

	e.Handle(ctx, turn("s1", scamText))
	reports := sink.all()
	require.Len(t, reports, 1)
	got := reports[0]
	assert.Equal(t, "s1", got.SessionID)
	assert.True(t, got.ScamDetected)
	assert.Equal(t, 2*DefaultMinTurns, got.TotalMessagesExchanged)
	assert.Equal(t, []string{"rahul@paytm"}, got.ExtractedIntelligence.UPIIDs)
	assert.Contains(t, got.AgentNotes, "UPI ID")

	for range 5 {
		e.Handle(ctx, turn("s1", scamText))
	}
	assert.Len(t, sink.all(), 1, "reported sessions never report again")
}

func TestHandleBenignNeverReports(t *testing.T) {
	t.Parallel()

	e, sink, _ := newEngine(t, nil, nil)
	ctx := context.Background()
	for range DefaultMaxTurns + 2 {
		r := e.Handle(ctx, turn("friend", "Hi, are we still meeting for lunch tomorrow?"))
		require.NotEmpty(t, r.Text)
	}
	assert.Empty(t, sink.all())

	u, err := e.Intelligence(ctx, "friend")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.False(t, u.IsScam)
	assert.Equal(t, 2*(DefaultMaxTurns+2), u.MessageCount)
}

func TestHandleConcurrentTurnsReportOnce(t *testing.T) {
	t.Parallel()

	e, sink, _ := newEngine(t, nil, nil)
	const n = 30

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Handle(context.Background(), turn("busy", scamText))
		}()
	}
	wg.Wait()

	assert.Len(t, sink.all(), 1)
	u, err := e.Intelligence(context.Background(), "busy")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 2*n, u.MessageCount)
	assert.True(t, u.Reported)
}

func TestHandleTurnsAndEvidenceOnlyGrow(t *testing.T) {
	t.Parallel()

	e, _, _ := newEngine(t, nil, nil)
	repo := e.store
	ctx := context.Background()

	msgs := []string{
		"Your KYC is pending, verify today",
		scamText,
		"Also call 9876543210 for help",
		"ok thanks",
	}
	var prevTurns, prevSize int
	for _, m := range msgs {
		e.Handle(ctx, turn("grow", m))
		s, err := repo.Get(ctx, "grow")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Greater(t, s.Turns, prevTurns)
		assert.GreaterOrEqual(t, s.Intelligence.Size(), prevSize)
		assert.NotNil(t, s.Persona, "persona is bound on the first turn")
		prevTurns, prevSize = s.Turns, s.Intelligence.Size()
	}
	s, err := repo.Get(ctx, "grow")
	require.NoError(t, err)
	assert.Contains(t, s.Intelligence.UPIIDs, "rahul@paytm")
	assert.True(t, s.IsScam)
}

func TestHandleGenerationFailureStillReplies(t *testing.T) {
	t.Parallel()

	e, _, logs := newEngine(t, llm.Unavailable{}, nil)
	r := e.Handle(context.Background(), turn("down", "Your parcel is held at customs, pay duty now"))
	assert.Equal(t, StatusSuccess, r.Status)
	assert.NotEmpty(t, r.Text)

	logs.mu.Lock()
	defer logs.mu.Unlock()
	require.Len(t, logs.events, 2)
	assert.Equal(t, convlog.EventScammerMessage, logs.events[0].EventType)
	assert.Equal(t, convlog.EventAgentReply, logs.events[1].EventType)
	assert.True(t, logs.events[1].Fallback)
}

func TestHandleStoreFailureDegrades(t *testing.T) {
	t.Parallel()

	e, sink, _ := newEngine(t, nil, failingStore{})
	r := e.Handle(context.Background(), turn("x", scamText))
	assert.Equal(t, StatusSuccess, r.Status)
	assert.NotEmpty(t, r.Text)
	assert.Empty(t, sink.all())
}

func TestHandleDefaultsAndFeed(t *testing.T) {
	t.Parallel()

	e, _, _ := newEngine(t, nil, nil)
	updates, cancel := e.feed.Subscribe(identity.DefaultSessionID)
	defer cancel()

	e.Handle(context.Background(), Turn{Message: domain.Message{Text: scamText}})

	select {
	case u := <-updates:
		assert.Equal(t, feed.TypeUpdate, u.Type)
		assert.True(t, u.IsScam)
		assert.Equal(t, 2, u.MessageCount)
	case <-time.After(2 * time.Second):
		t.Fatal("no feed update published")
	}
}

func TestIntelligenceUnknownSession(t *testing.T) {
	t.Parallel()

	e, _, _ := newEngine(t, nil, nil)
	u, err := e.Intelligence(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()

	e, _, _ := newEngine(t, nil, nil)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	got := e.withDefaults(Turn{})
	assert.Equal(t, identity.DefaultSessionID, got.SessionID)
	assert.Equal(t, domain.SenderScammer, got.Message.Sender)
	assert.Equal(t, fixed, got.Message.Timestamp)
	assert.Equal(t, domain.Metadata{
		Channel:  domain.DefaultChannel,
		Language: domain.DefaultLanguage,
		Locale:   domain.DefaultLocale,
	}, got.Metadata)

	kept := e.withDefaults(Turn{
		SessionID: "abc",
		Metadata:  domain.Metadata{Channel: "Email"},
	})
	assert.Equal(t, "abc", kept.SessionID)
	assert.Equal(t, "Email", kept.Metadata.Channel)
	assert.Equal(t, domain.DefaultLanguage, kept.Metadata.Language)
}
