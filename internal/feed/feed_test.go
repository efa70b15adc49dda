package feed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHubPublishAndCancel(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch, cancel := h.Subscribe("s1")
	other, cancelOther := h.Subscribe("s2")
	defer cancelOther()

	h.Publish(Update{SessionID: "s1", MessageCount: 2})
	u := <-ch
	assert.Equal(t, TypeUpdate, u.Type)
	assert.Equal(t, 2, u.MessageCount)
	select {
	case <-other:
		t.Fatal("update leaked to another session")
	default:
	}

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("s1"))
}

func TestHubDropsWhenSubscriberLags(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch, cancel := h.Subscribe("s")
	defer cancel()
	for i := 0; i < subscriberBuffer*3; i++ {
		h.Publish(Update{SessionID: "s", MessageCount: i})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubCloseAndDrop(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	a, cancelA := h.Subscribe("a")
	b, _ := h.Subscribe("b")

	h.Drop("a")
	_, ok := <-a
	assert.False(t, ok)
	cancelA()

	h.Close()
	_, ok = <-b
	assert.False(t, ok)

	late, _ := h.Subscribe("c")
	_, ok = <-late
	assert.False(t, ok)
}

func TestHandlerStreamsSnapshotThenUpdates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub(nil)
	snapshot := func(_ context.Context, id string) (*Update, error) {
		s := domain.NewSession(id, time.Now())
		s.RecordInbound(domain.NewMessage(domain.SenderScammer, "hi", time.Time{}))
		u := FromSession(TypeSnapshot, s)
		return &u, nil
	}

	r := chi.NewRouter()
	r.Handle("/ws/sessions/{sessionID}/intelligence", NewHandler(hub, snapshot, nil, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/abc/intelligence"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	var snap Update
	require.NoError(t, wsjson.Read(ctx, conn, &snap))
	assert.Equal(t, TypeSnapshot, snap.Type)
	assert.Equal(t, "abc", snap.SessionID)
	assert.Equal(t, 1, snap.MessageCount)

	require.Eventually(t, func() bool { return hub.Subscribers("abc") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(Update{SessionID: "abc", MessageCount: 3, Intelligence: domain.Intelligence{UPIIDs: []string{"x@ybl"}}})

	var upd Update
	require.NoError(t, wsjson.Read(ctx, conn, &upd))
	assert.Equal(t, TypeUpdate, upd.Type)
	assert.Equal(t, []string{"x@ybl"}, upd.Intelligence.UPIIDs)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return hub.Subscribers("abc") == 0 }, 2*time.Second, 10*time.Millisecond)
}
