package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/planetxonline/server/pkg/session"
	"github.com/stretchr/testify/assert"
)

type connEvent struct {
	playerID  int64
	connected bool
	ctxErr    error
}

func waitEvent(t *testing.T, events <-chan connEvent) connEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a connection event")
		return connEvent{}
	}
}

func TestSubscriberLifecycle(t *testing.T) {
	hub := NewHub()
	events := make(chan connEvent, 4)
	hub.SetConnectionHandler(func(ctx context.Context, playerID int64, connected bool) {
		events <- connEvent{playerID: playerID, connected: connected, ctxErr: ctx.Err()}
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWS(w, r, 7, 42)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	assert.NoError(t, err)

	ev := waitEvent(t, events)
	assert.Equal(t, int64(42), ev.playerID)
	assert.True(t, ev.connected)
	assert.NoError(t, ev.ctxErr)

	hub.PublishSession(context.Background(), &session.View{SessionID: 7})
	_, msg, err := conn.ReadMessage()
	assert.NoError(t, err)
	assert.Contains(t, string(msg), `"sessionID":7`)

	// The teardown callback fires long after the HTTP handler returned;
	// its context must still be live.
	conn.Close()
	ev = waitEvent(t, events)
	assert.Equal(t, int64(42), ev.playerID)
	assert.False(t, ev.connected)
	assert.NoError(t, ev.ctxErr)
}
