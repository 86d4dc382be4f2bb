// Package live fans admin events out to connected dashboard websockets.
package live

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"homestay/globals"
	"homestay/middleware"
	"homestay/mq"
	"homestay/rdx"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins — adjust for production if needed
		return true
	},
}

type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	stop  chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		stop:  make(chan struct{}),
	}
}

// Run subscribes to the Redis event bus and relays every message to all
// connected clients. Returns immediately when Redis is unavailable.
func (h *Hub) Run() {
	if rdx.Conn == nil {
		return
	}
	sub := rdx.Conn.Subscribe(globals.Ctx, mq.Channel)
	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		case <-h.stop:
			_ = sub.Close()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.stop)
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
	h.conns = make(map[*websocket.Conn]bool)
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// HandleWS upgrades the connection and parks it until the client leaves.
// Browsers cannot set headers on websocket handshakes, so the admin token
// travels in the query string instead.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !middleware.Open {
		if _, err := middleware.ValidateJWT("Bearer " + r.URL.Query().Get("token")); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}
