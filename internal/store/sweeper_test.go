package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSweeperRemovesIdleSessionsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := time.Unix(1_700_000_000, 0)
	var now atomic.Int64
	now.Store(clock.Unix())

	m := NewMemory(0)
	m.now = func() time.Time { return time.Unix(now.Load(), 0) }
	_, err := m.GetOrCreate(context.Background(), "idle")
	require.NoError(t, err)
	now.Add(int64(time.Hour / time.Second))

	var (
		mu    sync.Mutex
		swept []string
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := StartSweeper(ctx, m, time.Minute, 5*time.Millisecond, func(ids []string) {
		mu.Lock()
		defer mu.Unlock()
		swept = append(swept, ids...)
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(swept) == 1 && swept[0] == "idle"
	}, time.Second, 5*time.Millisecond)
	n, _ := m.Count(context.Background())
	assert.Equal(t, 0, n)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweepNoopWhenNothingExpired(t *testing.T) {
	t.Parallel()

	m := NewMemory(0)
	_, err := m.GetOrCreate(context.Background(), "live")
	require.NoError(t, err)

	called := false
	assert.Equal(t, 0, Sweep(context.Background(), m, time.Hour, func([]string) { called = true }))
	assert.False(t, called)
}
