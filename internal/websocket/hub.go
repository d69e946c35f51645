package websocket

import (
	"context"
	"log/slog"

	"commung/internal/observability"
)

// BroadcastMessage represents a message to be fanned out to a room
type BroadcastMessage struct {
	RoomID  string
	Message []byte
}

// Hub maintains the active clients of this server instance, grouped by
// room, and broadcasts messages to them. Cross-instance fan-out happens
// through the messaging relay, which feeds into Broadcast as well.
type Hub struct {
	// Registered clients by room
	clients map[string]map[*Client]bool

	// Broadcast channel
	broadcast chan *BroadcastMessage

	// Register client
	register chan *Client

	// Unregister client
	unregister chan *Client

	// Shutdown signal
	done chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			if h.clients[client.roomID] == nil {
				h.clients[client.roomID] = make(map[*Client]bool)
			}
			h.clients[client.roomID][client] = true
			observability.WebSocketConnectionsActive.WithLabelValues(client.roomID).Inc()
			slog.Info("client registered",
				slog.String("handle", client.handle),
				slog.String("room_id", client.roomID))

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			if clients, ok := h.clients[message.RoomID]; ok {
				for client := range clients {
					select {
					case client.send <- message.Message:
						observability.WebSocketMessagesSent.WithLabelValues(message.RoomID, "broadcast").Inc()
					default:
						// Client's send buffer is full, close connection
						h.closeClientSend(client)
						delete(clients, client)
					}
				}
			}
		}
	}
}

// unregisterClient safely removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.clients[client.roomID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			h.closeClientSend(client)
			observability.WebSocketConnectionsActive.WithLabelValues(client.roomID).Dec()
			slog.Info("client unregistered",
				slog.String("handle", client.handle),
				slog.String("room_id", client.roomID))

			// Clean up empty room
			if len(clients) == 0 {
				delete(h.clients, client.roomID)
			}
		}
	}
}

// closeClientSend safely closes a client's send channel
func (h *Hub) closeClientSend(client *Client) {
	select {
	case <-client.send:
		// Channel already closed
	default:
		close(client.send)
	}
}

// shutdown performs graceful cleanup of all connections
func (h *Hub) shutdown() {
	close(h.done)

	for roomID, clients := range h.clients {
		for client := range clients {
			h.closeClientSend(client)
			slog.Info("closed client connection",
				slog.String("handle", client.handle),
				slog.String("room_id", roomID))
		}
	}

	slog.Info("hub shutdown complete")
}

// Broadcast sends a message to all local clients in a room
func (h *Hub) Broadcast(roomID string, message []byte) {
	h.broadcast <- &BroadcastMessage{
		RoomID:  roomID,
		Message: message,
	}
}

// Register registers a client with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
