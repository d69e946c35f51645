package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"commung/internal/domain"
	"commung/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMessageSize = 4096
)

// MessagePublisher relays persisted room messages to other server
// instances. Local clients are served straight from the hub.
type MessagePublisher interface {
	PublishRoomMessage(ctx context.Context, msg *domain.RoomMessage) error
}

// Client is one WebSocket connection of a community profile in a room.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	profileID   string
	handle      string
	roomID      string
	chatService *service.ChatService
	publisher   MessagePublisher
	writeMu     sync.Mutex
	closed      atomic.Bool
	ctx         context.Context
	ctxCancel   context.CancelFunc
}

// ClientMessage is what a connected client sends.
type ClientMessage struct {
	Content string `json:"content"`
}

// ServerMessage is what the server pushes to connected clients.
type ServerMessage struct {
	Type      string     `json:"type"`
	ID        string     `json:"id,omitempty"`
	ProfileID string     `json:"profile_id,omitempty"`
	Handle    string     `json:"handle,omitempty"`
	Content   string     `json:"content,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, profileID, handle, roomID string,
	chatService *service.ChatService, publisher MessagePublisher) *Client {
	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		profileID:   profileID,
		handle:      handle,
		roomID:      roomID,
		chatService: chatService,
		publisher:   publisher,
		ctx:         clientCtx,
		ctxCancel:   cancel,
	}
}

// ReadPump reads messages from the connection, persists them, and fans
// them out locally and to the other instances.
func (c *Client) ReadPump() {
	defer func() {
		c.ctxCancel()
		c.hub.Unregister(c)
		c.closeConnection()
		c.announce("user_left")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline",
			slog.String("error", err.Error()),
			slog.String("handle", c.handle),
			slog.String("room_id", c.roomID))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.announce("user_joined")

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error",
					slog.String("error", err.Error()),
					slog.String("handle", c.handle))
			}
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			slog.Warn("invalid message format",
				slog.String("error", err.Error()),
				slog.String("handle", c.handle))
			continue
		}

		msg := &domain.RoomMessage{
			RoomID:    c.roomID,
			ProfileID: c.profileID,
			Handle:    c.handle,
			Content:   clientMsg.Content,
		}

		ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
		if err := c.chatService.SendMessage(ctx, msg); err != nil {
			cancel()
			slog.Error("error saving message",
				slog.String("error", err.Error()),
				slog.String("handle", c.handle),
				slog.String("room_id", c.roomID))
			c.sendError("Failed to send message")
			continue
		}

		serverMsg := ServerMessage{
			Type:      "chat_message",
			ID:        msg.ID,
			ProfileID: msg.ProfileID,
			Handle:    msg.Handle,
			Content:   msg.Content,
			CreatedAt: &msg.CreatedAt,
		}

		if data, err := json.Marshal(serverMsg); err != nil {
			slog.Error("failed to marshal chat message",
				slog.String("error", err.Error()),
				slog.String("message_id", msg.ID))
		} else {
			c.hub.Broadcast(c.roomID, data)
		}

		if err := c.publisher.PublishRoomMessage(ctx, msg); err != nil {
			slog.Error("error relaying message",
				slog.String("error", err.Error()),
				slog.String("message_id", msg.ID))
		}
		cancel()
	}
}

// announce broadcasts a join/leave event to the local room.
func (c *Client) announce(eventType string) {
	msg := ServerMessage{
		Type:   eventType,
		Handle: c.handle,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal announcement",
			slog.String("error", err.Error()),
			slog.String("handle", c.handle))
		return
	}
	c.hub.Broadcast(c.roomID, data)
}

// sendError pushes an error message to this client only.
func (c *Client) sendError(message string) {
	errorMsg := ServerMessage{
		Type:    "error",
		Message: message,
	}
	data, err := json.Marshal(errorMsg)
	if err != nil {
		slog.Error("failed to marshal error message", slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				_ = c.writeMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage writes a message to the WebSocket connection in a thread-safe manner
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return websocket.ErrCloseSent
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// closeConnection closes the underlying connection exactly once
func (c *Client) closeConnection() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.conn.Close()
	}
}
