// Package health publishes dependency status over the standard gRPC health
// protocol.
package health

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ashureev/scam-honeypot/internal/llm"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Published service names.
const (
	ServiceGeneration = "honeypot.generation"
	ServiceStore      = "honeypot.store"
)

// transientLimit is how many transient generation failures in a row mark
// generation as not serving.
const transientLimit = 3

// Pinger is satisfied by store.Repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server tracks generation and store status.
type Server struct {
	hs     *grpchealth.Server
	grpc   *grpc.Server
	logger *slog.Logger

	mu        sync.Mutex
	transient int
	status    map[string]healthpb.HealthCheckResponse_ServingStatus
}

// New creates a health server with every service SERVING.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		hs:     grpchealth.NewServer(),
		grpc:   grpc.NewServer(),
		logger: logger,
		status: make(map[string]healthpb.HealthCheckResponse_ServingStatus),
	}
	healthpb.RegisterHealthServer(s.grpc, s.hs)
	s.set("", healthpb.HealthCheckResponse_SERVING)
	s.set(ServiceGeneration, healthpb.HealthCheckResponse_SERVING)
	s.set(ServiceStore, healthpb.HealthCheckResponse_SERVING)
	return s
}

// ObserveGeneration implements llm.Observer. Quota and auth failures flip
// generation to NOT_SERVING at once; transient ones only after a streak.
func (s *Server) ObserveGeneration(ok bool, kind llm.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok {
		s.transient = 0
		s.setLocked(ServiceGeneration, healthpb.HealthCheckResponse_SERVING)
		return
	}
	switch kind {
	case llm.KindQuota, llm.KindAuth:
		s.setLocked(ServiceGeneration, healthpb.HealthCheckResponse_NOT_SERVING)
	default:
		s.transient++
		if s.transient >= transientLimit {
			s.setLocked(ServiceGeneration, healthpb.HealthCheckResponse_NOT_SERVING)
		}
	}
}

// CheckStore pings p and records the result.
func (s *Server) CheckStore(ctx context.Context, p Pinger) error {
	err := p.Ping(ctx)
	st := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.set(ServiceStore, st)
	return err
}

// StartStoreProbe pings p every interval until ctx is cancelled. The
// returned channel closes when the probe has stopped.
func (s *Server) StartStoreProbe(ctx context.Context, p Pinger, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, interval)
				if err := s.CheckStore(pingCtx, p); err != nil {
					s.logger.Warn("Store health probe failed", "error", err)
				}
				cancel()
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

// Serve serves the health service on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks everything NOT_SERVING and stops the gRPC server.
func (s *Server) Stop() {
	s.hs.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) set(service string, st healthpb.HealthCheckResponse_ServingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(service, st)
}

func (s *Server) setLocked(service string, st healthpb.HealthCheckResponse_ServingStatus) {
	prev, seen := s.status[service]
	s.status[service] = st
	s.hs.SetServingStatus(service, st)
	if seen && prev != st {
		s.logger.Info("Health status changed", "service", service, "status", st.String())
	}
}

var _ llm.Observer = (*Server)(nil)
