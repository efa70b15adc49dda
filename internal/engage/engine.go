// Package engage runs one conversational turn end to end: classify, record,
// reply, accumulate evidence and report when the engagement is over.
package engage

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ashureev/scam-honeypot/internal/convlog"
	"github.com/ashureev/scam-honeypot/internal/detect"
	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/feed"
	"github.com/ashureev/scam-honeypot/internal/identity"
	"github.com/ashureev/scam-honeypot/internal/intel"
	"github.com/ashureev/scam-honeypot/internal/persona"
	"github.com/ashureev/scam-honeypot/internal/reply"
	"github.com/ashureev/scam-honeypot/internal/report"
	"github.com/ashureev/scam-honeypot/internal/store"
	"github.com/ashureev/scam-honeypot/internal/strategy"
	"github.com/ashureev/scam-honeypot/internal/tone"
)

// StatusSuccess is the only status the engine reports to callers.
const StatusSuccess = "success"

const defaultReportTimeout = 5 * time.Second

// Turn is one inbound counterparty message.
type Turn struct {
	SessionID string
	Message   domain.Message
	History   []domain.HistoryEntry
	Metadata  domain.Metadata
}

// Reply is the outward answer for a turn.
type Reply struct {
	Status string `json:"status"`
	Text   string `json:"reply"`
}

// Config wires an Engine.
type Config struct {
	Store       store.Repository
	Classifier  *detect.Classifier
	Accumulator *intel.Accumulator
	Composer    *reply.Composer
	Personas    *persona.Registry
	Sink        report.Sink

	// Optional.
	Feed          *feed.Hub
	ConvLog       convlog.Logger
	Policy        Policy
	ReportTimeout time.Duration
	Logger        *slog.Logger
}

// Engine orchestrates engagements. It is safe for concurrent use; turns for
// the same session are serialised only inside the store's atomic updates.
type Engine struct {
	store         store.Repository
	classifier    *detect.Classifier
	accumulator   *intel.Accumulator
	composer      *reply.Composer
	personas      *persona.Registry
	sink          report.Sink
	feed          *feed.Hub
	convlog       convlog.Logger
	policy        Policy
	reportTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// New creates an Engine.
func New(cfg Config) *Engine {
	e := &Engine{
		store:         cfg.Store,
		classifier:    cfg.Classifier,
		accumulator:   cfg.Accumulator,
		composer:      cfg.Composer,
		personas:      cfg.Personas,
		sink:          cfg.Sink,
		feed:          cfg.Feed,
		convlog:       cfg.ConvLog,
		policy:        cfg.Policy,
		reportTimeout: cfg.ReportTimeout,
		logger:        cfg.Logger,
		now:           time.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.sink == nil {
		e.sink = report.LogSink{Logger: e.logger}
	}
	if e.convlog == nil {
		e.convlog = convlog.Nop{}
	}
	if e.policy.MinTurns <= 0 || e.policy.MaxTurns <= 0 {
		e.policy = DefaultPolicy()
	}
	if e.reportTimeout <= 0 {
		e.reportTimeout = defaultReportTimeout
	}
	return e
}

// Handle processes one turn. It always returns a usable in-persona reply;
// failures are logged and degrade to local fallbacks.
func (e *Engine) Handle(ctx context.Context, t Turn) Reply {
	t = e.withDefaults(t)
	key := identity.SessionKey(t.SessionID)
	text := t.Message.Text

	verdict := e.classifier.Classify(ctx, text, t.History, t.Metadata)

	inbound := domain.NewMessage(domain.SenderScammer, text, t.Message.Timestamp)
	sess, err := e.store.Update(ctx, key, func(s *domain.Session) error {
		if s.Persona == nil {
			p := e.personas.Pick()
			s.Persona = &p
		}
		s.MarkScam(verdict.IsScam)
		s.RecordInbound(inbound)
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to record inbound message", "session_id", key, "error", err)
		out := e.composer.Fallback(reply.Input{Message: text})
		return Reply{Status: StatusSuccess, Text: out.Text}
	}

	history := t.History
	if len(history) == 0 {
		// Callers may omit history; the stored log minus the current message
		// stands in for it.
		history = domain.HistoryFromMessages(sess.Messages[:len(sess.Messages)-1])
	}

	tn := tone.Classify(text)
	directive := strategy.Select(tn, sess.Turns, sess.Persona)

	var (
		out reply.Output
		x   intel.Extraction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out = e.composer.Compose(gctx, reply.Input{
			Message:         text,
			History:         history,
			Persona:         *sess.Persona,
			Directive:       directive,
			Tone:            tn,
			Turn:            sess.Turns,
			Language:        t.Metadata.Language,
			RecentFallbacks: sess.RecentFallbacks,
		})
		return nil
	})
	g.Go(func() error {
		x = e.accumulator.Extract(gctx, intel.Transcript(history, text))
		return nil
	})
	_ = g.Wait()

	outbound := domain.NewMessage(domain.SenderAgent, out.Text, time.Time{})
	var fire bool
	updated, err := e.store.Update(ctx, key, func(s *domain.Session) error {
		fire = false
		s.RecordReply(outbound)
		if out.Fallback && out.Topic == reply.TopicGeneric {
			s.RememberFallback(out.Text)
		}
		s.Intelligence = intel.Merge(s.Intelligence, x)
		if s.IsScam && e.policy.ShouldEnd(s) {
			fire = s.MarkReported()
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to record agent reply", "session_id", key, "error", err)
		return Reply{Status: StatusSuccess, Text: out.Text}
	}

	e.logger.Info("Turn processed",
		"session_id", key,
		"turn", updated.Turns,
		"is_scam", updated.IsScam,
		"verdict_source", verdict.Source,
		"confidence", verdict.Confidence,
		"tone", tn,
		"directive", directive.Kind,
		"fallback", out.Fallback,
		"structured_extraction", x.Structured != nil,
		"intelligence_items", updated.Intelligence.Size(),
	)

	if fire {
		e.submit(ctx, updated)
	}

	if e.feed != nil {
		e.feed.Publish(feed.FromSession(feed.TypeUpdate, updated))
	}
	e.logTurn(t, updated, tn, directive, out)

	return Reply{Status: StatusSuccess, Text: out.Text}
}

// Intelligence returns the current evidence for a session, or nil when the
// session does not exist.
func (e *Engine) Intelligence(ctx context.Context, sessionID string) (*feed.Update, error) {
	sess, err := e.store.Get(ctx, identity.SessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	u := feed.FromSession(feed.TypeSnapshot, sess)
	return &u, nil
}

func (e *Engine) withDefaults(t Turn) Turn {
	if t.SessionID == "" {
		t.SessionID = identity.DefaultSessionID
	}
	if t.Message.Sender == "" {
		t.Message.Sender = domain.SenderScammer
	}
	if t.Message.Timestamp.IsZero() {
		t.Message.Timestamp = e.now()
	}
	t.Metadata = t.Metadata.WithDefaults()
	return t
}

// submit delivers the final report. It survives cancellation of the request
// context but is bounded by the report timeout.
func (e *Engine) submit(ctx context.Context, s *domain.Session) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.reportTimeout)
	defer cancel()

	r := report.FromSession(s)
	if err := e.sink.Submit(ctx, r); err != nil {
		e.logger.Warn("Report submission failed", "session_id", s.ID, "error", err)
	} else {
		e.logger.Info("Engagement reported", "session_id", s.ID, "turns", s.Turns, "notes", r.AgentNotes)
	}
	e.convlog.Log(convlog.Event{
		SessionID:  s.ID,
		Direction:  convlog.DirectionOutbound,
		EventType:  convlog.EventReport,
		Turn:       s.Turns,
		ContentRaw: r.AgentNotes,
		IsScam:     s.IsScam,
	})
}

func (e *Engine) logTurn(t Turn, s *domain.Session, tn domain.Tone, d domain.Directive, out reply.Output) {
	var personaName string
	if s.Persona != nil {
		personaName = s.Persona.Name
	}
	e.convlog.Log(convlog.Event{
		Timestamp:  t.Message.Timestamp,
		SessionID:  s.ID,
		Channel:    t.Metadata.Channel,
		Direction:  convlog.DirectionInbound,
		EventType:  convlog.EventScammerMessage,
		Turn:       s.Turns,
		ContentRaw: t.Message.Text,
		Tone:       string(tn),
		IsScam:     s.IsScam,
	})
	e.convlog.Log(convlog.Event{
		SessionID:  s.ID,
		Channel:    t.Metadata.Channel,
		Direction:  convlog.DirectionOutbound,
		EventType:  convlog.EventAgentReply,
		Turn:       s.Turns,
		ContentRaw: out.Text,
		Persona:    personaName,
		Directive:  string(d.Kind),
		Fallback:   out.Fallback,
		IsScam:     s.IsScam,
	})
}
