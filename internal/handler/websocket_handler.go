package handler

import (
	"context"
	"log/slog"
	"net/http"

	"commung/internal/middleware"
	"commung/internal/service"
	ws "commung/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		// In production, check against allowed origins
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *ws.Hub
	chatService    *service.ChatService
	profileService *service.ProfileService
	publisher      ws.MessagePublisher
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, chatService *service.ChatService, profileService *service.ProfileService, publisher ws.MessagePublisher) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		chatService:    chatService,
		profileService: profileService,
		publisher:      publisher,
	}
}

// HandleConnection handles WebSocket upgrade and connection
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "room_id")
	if roomID == "" {
		http.Error(w, `{"error":"Room ID required"}`, http.StatusBadRequest)
		return
	}

	// Chat is a profile-level feature: the connection speaks as the
	// caller's profile in this community
	profile, err := h.profileService.GetOwn(r.Context(), session.UserID, session.CommunityID)
	if err != nil {
		http.Error(w, `{"error":"A profile is required to use chat rooms"}`, http.StatusForbidden)
		return
	}

	room, err := h.chatService.GetRoom(r.Context(), roomID)
	if err != nil || room.CommunityID != session.CommunityID {
		http.Error(w, `{"error":"Room not found"}`, http.StatusNotFound)
		return
	}

	isMember, err := h.chatService.IsMember(r.Context(), roomID, profile.ID)
	if err != nil || !isMember {
		http.Error(w, `{"error":"Not a member of this room"}`, http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("room_id", roomID))
		return
	}

	// The request context dies when this handler returns; the client
	// outlives it on the hijacked connection
	client := ws.NewClient(context.WithoutCancel(r.Context()), h.hub, conn, profile.ID, profile.Handle, roomID, h.chatService, h.publisher)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
