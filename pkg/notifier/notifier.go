// Package notifier pushes refreshed session views to WebSocket
// subscribers.
package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/planetxonline/server/pkg/log"
	"github.com/planetxonline/server/pkg/session"
)

const (
	// subscriberBufferSize is the per-subscriber send queue. A subscriber
	// that falls this far behind is dropped.
	subscriberBufferSize = 16
	writeTimeout         = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConnectionHandler is told when a player's first subscription opens or
// last subscription closes.
type ConnectionHandler func(ctx context.Context, playerID int64, connected bool)

type subscriber struct {
	id        uuid.UUID
	sessionID int64
	playerID  int64
	conn      *websocket.Conn
	send      chan []byte
}

// Hub tracks WebSocket subscribers per session and fans published views
// out to them. It implements session.Notifier.
type Hub struct {
	mu           sync.RWMutex
	subscribers  map[int64]map[uuid.UUID]*subscriber
	onConnection ConnectionHandler
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[uuid.UUID]*subscriber),
	}
}

// SetConnectionHandler registers the liveness callback. Must be called
// before the hub accepts connections.
func (h *Hub) SetConnectionHandler(handler ConnectionHandler) {
	h.onConnection = handler
}

// PublishSession serializes the view once and queues it to every
// subscriber of the session.
func (h *Hub) PublishSession(ctx context.Context, view *session.View) {
	b, err := json.Marshal(view)
	if err != nil {
		log.Error("failed to serialize view for session %d: %v", view.SessionID, err)
		return
	}

	// Queueing happens under the read lock so a concurrent remove, which
	// closes send channels under the write lock, cannot interleave.
	h.mu.RLock()
	var slow []*subscriber
	for _, sub := range h.subscribers[view.SessionID] {
		select {
		case sub.send <- b:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		log.Warn("subscriber %s is too far behind, dropping", sub.id)
		h.remove(ctx, sub)
	}
}

// HandleWS upgrades the request and subscribes it to a session's views.
// The subscription counts toward the player's connected flag. It outlives
// the HTTP request, whose context dies as soon as the handler returns, so
// the pumps and the liveness callbacks run on their own context.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, sessionID, playerID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade to WebSocket: %v", err)
		return
	}
	log.Debug("new subscriber for session %d from %s", sessionID, conn.RemoteAddr().String())

	sub := &subscriber{
		id:        uuid.New(),
		sessionID: sessionID,
		playerID:  playerID,
		conn:      conn,
		send:      make(chan []byte, subscriberBufferSize),
	}
	ctx := context.Background()
	h.add(ctx, sub)

	go h.writePump(sub)
	go h.readPump(ctx, sub)
}

func (h *Hub) add(ctx context.Context, sub *subscriber) {
	h.mu.Lock()
	sessionSubs, ok := h.subscribers[sub.sessionID]
	if !ok {
		sessionSubs = make(map[uuid.UUID]*subscriber)
		h.subscribers[sub.sessionID] = sessionSubs
	}
	first := !h.hasPlayerLocked(sub.sessionID, sub.playerID)
	sessionSubs[sub.id] = sub
	h.mu.Unlock()

	if first && h.onConnection != nil {
		h.onConnection(ctx, sub.playerID, true)
	}
}

func (h *Hub) remove(ctx context.Context, sub *subscriber) {
	h.mu.Lock()
	sessionSubs, ok := h.subscribers[sub.sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := sessionSubs[sub.id]; !exists {
		h.mu.Unlock()
		return
	}
	delete(sessionSubs, sub.id)
	if len(sessionSubs) == 0 {
		delete(h.subscribers, sub.sessionID)
	}
	last := !h.hasPlayerLocked(sub.sessionID, sub.playerID)
	h.mu.Unlock()

	close(sub.send)
	sub.conn.Close()
	if last && h.onConnection != nil {
		h.onConnection(ctx, sub.playerID, false)
	}
}

// hasPlayerLocked reports whether the player still holds any subscription
// to the session. Callers hold h.mu.
func (h *Hub) hasPlayerLocked(sessionID, playerID int64) bool {
	for _, sub := range h.subscribers[sessionID] {
		if sub.playerID == playerID {
			return true
		}
	}
	return false
}

// writePump is the connection's single writer.
func (h *Hub) writePump(sub *subscriber) {
	for b := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := sub.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug("failed to write to subscriber %s: %v", sub.id, err)
			return
		}
	}
}

// readPump drains the connection so close frames are processed and
// unsubscribes when it drops.
func (h *Hub) readPump(ctx context.Context, sub *subscriber) {
	defer h.remove(ctx, sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("error reading from subscriber %s: %v", sub.id, err)
			}
			return
		}
	}
}
