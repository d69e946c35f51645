package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"commung/internal/domain"
	"commung/internal/middleware"
	"commung/internal/service"

	"github.com/go-chi/chi/v5"
)

// RoomHandler handles chat room endpoints
type RoomHandler struct {
	chatService    *service.ChatService
	profileService *service.ProfileService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(chatService *service.ChatService, profileService *service.ProfileService) *RoomHandler {
	return &RoomHandler{
		chatService:    chatService,
		profileService: profileService,
	}
}

// CreateRoomRequest represents room creation request
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// callerProfile resolves the caller's profile in the session's
// community. Room actions are performed by profiles, not accounts.
func (h *RoomHandler) callerProfile(w http.ResponseWriter, r *http.Request) (*domain.Session, *domain.Profile, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return nil, nil, false
	}

	profile, err := h.profileService.GetOwn(r.Context(), session.UserID, session.CommunityID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			http.Error(w, `{"error":"A profile is required to use chat rooms"}`, http.StatusForbidden)
			return nil, nil, false
		}
		http.Error(w, `{"error":"Failed to retrieve profile"}`, http.StatusInternalServerError)
		return nil, nil, false
	}

	return session, profile, true
}

// Create creates a room with the caller as its first member
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	room, err := h.chatService.CreateRoom(r.Context(), session.CommunityID, req.Name, profile.ID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// List returns the community's rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	rooms, err := h.chatService.ListRooms(r.Context(), session.CommunityID)
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve rooms"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rooms": rooms,
	})
}

// Join adds the caller's profile to a room
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	session, profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	roomID := chi.URLParam(r, "room_id")

	if err := h.chatService.JoinRoom(r.Context(), roomID, session.CommunityID, profile.ID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			http.Error(w, `{"error":"Room not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to join room"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "joined room",
	})
}

// GetMessages returns recent message history for a room the caller
// belongs to
func (h *RoomHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	session, profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	roomID := chi.URLParam(r, "room_id")

	room, err := h.chatService.GetRoom(r.Context(), roomID)
	if err != nil || room.CommunityID != session.CommunityID {
		http.Error(w, `{"error":"Room not found"}`, http.StatusNotFound)
		return
	}

	isMember, err := h.chatService.IsMember(r.Context(), roomID, profile.ID)
	if err != nil {
		http.Error(w, `{"error":"Failed to check membership"}`, http.StatusInternalServerError)
		return
	}
	if !isMember {
		http.Error(w, `{"error":"Not a member of this room"}`, http.StatusForbidden)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, `{"error":"Invalid limit parameter"}`, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.GetMessages(r.Context(), roomID, limit)
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve messages"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": messages,
	})
}
