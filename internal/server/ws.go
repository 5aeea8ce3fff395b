package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"flightdelay/internal/analytics"
)

// Hub streams served predictions to connected WebSocket clients. Slow or gone
// clients are dropped rather than allowed to stall the feed.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	events    chan analytics.Event
	stop      chan struct{}
	once      sync.Once
}

// NewHub creates a prediction feed hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]bool),
		events:   make(chan analytics.Event, 100),
		stop:     make(chan struct{}),
	}
	go h.run()
	return h
}

// Broadcast queues an event for delivery. It never blocks; when the queue is
// full the event is skipped.
func (h *Hub) Broadcast(ev analytics.Event) {
	select {
	case h.events <- ev:
	default:
	}
}

// Close stops the broadcast loop and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.stop)

		h.clientsMu.Lock()
		for client := range h.clients {
			client.Close()
		}
		h.clients = make(map[*websocket.Conn]bool)
		h.clientsMu.Unlock()
	})
}

func (h *Hub) run() {
	for {
		select {
		case ev := <-h.events:
			h.broadcastToClients(ev)
		case <-h.stop:
			return
		}
	}
}

func (h *Hub) broadcastToClients(ev analytics.Event) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for client := range h.clients {
		if err := client.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Msg("dropping websocket client")
			client.Close()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.clientsMu.Unlock()

	log.Info().Int("clients", count).Msg("websocket client connected")

	// Drain control frames until the client goes away.
	go func() {
		defer func() {
			h.clientsMu.Lock()
			delete(h.clients, conn)
			h.clientsMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
