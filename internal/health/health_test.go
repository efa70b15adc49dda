package health

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/ashureev/scam-honeypot/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func dial(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func status(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestGenerationStatusFollowsObservations(t *testing.T) {
	t.Parallel()

	s := New(nil)
	c := dial(t, s)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ServiceGeneration))

	s.ObserveGeneration(false, llm.KindTransient)
	s.ObserveGeneration(false, llm.KindTransient)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ServiceGeneration))
	s.ObserveGeneration(false, llm.KindTransient)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, ServiceGeneration))

	s.ObserveGeneration(true, "")
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ServiceGeneration))

	s.ObserveGeneration(false, llm.KindQuota)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, ServiceGeneration))
}

func TestStoreStatus(t *testing.T) {
	t.Parallel()

	s := New(nil)
	c := dial(t, s)

	require.Error(t, s.CheckStore(context.Background(), pinger{err: errors.New("down")}))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, ServiceStore))

	require.NoError(t, s.CheckStore(context.Background(), pinger{}))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ServiceStore))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ""))
}

func TestGuardReportsToHealth(t *testing.T) {
	t.Parallel()

	s := New(nil)
	c := dial(t, s)
	g := llm.NewGuard(llm.Unavailable{}, 0, s, nil)
	for i := 0; i < transientLimit; i++ {
		_, err := g.Complete(context.Background(), "p", llm.Options{})
		require.Error(t, err)
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, ServiceGeneration))
}
