// Scam honeypot engagement server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/scam-honeypot/internal/api"
	"github.com/ashureev/scam-honeypot/internal/config"
	"github.com/ashureev/scam-honeypot/internal/convlog"
	"github.com/ashureev/scam-honeypot/internal/detect"
	"github.com/ashureev/scam-honeypot/internal/engage"
	"github.com/ashureev/scam-honeypot/internal/extract"
	"github.com/ashureev/scam-honeypot/internal/feed"
	"github.com/ashureev/scam-honeypot/internal/health"
	"github.com/ashureev/scam-honeypot/internal/intel"
	"github.com/ashureev/scam-honeypot/internal/llm"
	"github.com/ashureev/scam-honeypot/internal/middleware"
	"github.com/ashureev/scam-honeypot/internal/persona"
	"github.com/ashureev/scam-honeypot/internal/reply"
	"github.com/ashureev/scam-honeypot/internal/report"
	"github.com/ashureev/scam-honeypot/internal/shared"
	"github.com/ashureev/scam-honeypot/internal/store"
	"github.com/ashureev/scam-honeypot/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server",
		"port", cfg.Port,
		"store", cfg.Store.Driver,
		"generation", cfg.GenerationEnabled(),
		"short_circuit", cfg.Engagement.ShortCircuit,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := newStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready", "driver", cfg.Store.Driver)

	healthSrv := health.New(logger)

	var base llm.Generator = llm.Unavailable{}
	if cfg.GenerationEnabled() {
		gemini, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.LLM.GeminiAPIKey,
			Model:  cfg.LLM.Model,
		}, logger)
		if err != nil {
			slog.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		base = gemini
	} else {
		slog.Info("Generation disabled, using local fallbacks only", "mock_mode", cfg.LLM.MockMode)
	}
	analysisGen := llm.NewGuard(base, cfg.LLM.Timeout, healthSrv, logger)
	replyGen := analysisGen.WithTimeout(cfg.LLM.ReplyTimeout)

	rng := shared.NewRand(cfg.Engagement.RandomSeed)
	personas, err := persona.Default(rng)
	if err != nil {
		slog.Error("Failed to load personas", "error", err)
		os.Exit(1)
	}

	convLogger, err := convlog.New(convlog.Config{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := convLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	var sink report.Sink = report.LogSink{Logger: logger}
	if cfg.CallbackURL != "" {
		sink = report.NewHTTPSink(cfg.CallbackURL, nil, logger)
		slog.Info("Reporting to callback", "url", cfg.CallbackURL)
	}

	hub := feed.NewHub(logger)
	defer hub.Close()

	engine := engage.New(engage.Config{
		Store:         repo,
		Classifier:    detect.NewClassifier(analysisGen, detect.Options{ShortCircuit: cfg.Engagement.ShortCircuit}, logger),
		Accumulator:   intel.NewAccumulator(analysisGen, extract.New(extract.DefaultConfig()), logger),
		Composer:      reply.NewComposer(replyGen, rng, logger),
		Personas:      personas,
		Sink:          sink,
		Feed:          hub,
		ConvLog:       convLogger,
		Policy:        engage.Policy{MinTurns: cfg.Engagement.MinTurns, MaxTurns: cfg.Engagement.MaxTurns},
		ReportTimeout: cfg.Engagement.ReportTimeout,
		Logger:        logger,
	})

	// Initialize handlers.
	apiHandler := api.NewHandler(engine, repo, logger)
	feedHandler := feed.NewHandler(hub, engine.Intelligence, cfg.CORSOrigins, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Public routes.
	apiHandler.RegisterHealth(r)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(middleware.APIKey(cfg.APIKey))
		apiHandler.RegisterRoutes(r)
		r.Get("/ws/sessions/{sessionID}/intelligence", feedHandler.ServeHTTP)
	})

	// Serve embedded dashboard (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WriteTimeout stays 0 so intelligence sockets are not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	sweepDone := store.StartSweeper(ctx, repo, cfg.Store.SessionTTL, cfg.Store.SweepInterval, func(ids []string) {
		// Watchers of an expired session would otherwise wait forever.
		for _, id := range ids {
			hub.Drop(id)
		}
	})
	slog.Info("Session sweeper started", "session_ttl", cfg.Store.SessionTTL, "interval", cfg.Store.SweepInterval)
	evictDone := limiter.StartEviction(ctx)
	probeDone := healthSrv.StartStoreProbe(ctx, repo, 30*time.Second)

	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "addr", cfg.GRPCHealthAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("gRPC health listening", "addr", lis.Addr().String())
			if err := healthSrv.Serve(lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	healthSrv.Stop()
	<-sweepDone
	<-evictDone
	<-probeDone

	slog.Info("Server stopped successfully")
}

func newStore(cfg *config.Config) (store.Repository, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		s, err := store.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMemory:
		return store.NewMemory(cfg.Store.MaxSessions), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
