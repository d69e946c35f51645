package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"commung/internal/domain"
	"commung/internal/middleware"
	"commung/internal/service"
)

// PostHandler handles community post endpoints
type PostHandler struct {
	postService *service.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// CreatePostRequest represents post creation request
type CreatePostRequest struct {
	Content string `json:"content"`
}

// Create publishes a post authored by the caller's profile
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	post, err := h.postService.Create(r.Context(), session.UserID, session.CommunityID, req.Content)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrProfileNotFound) {
			status = http.StatusForbidden
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}

// List returns posts newest first, paginated with a before cursor
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	before := r.URL.Query().Get("before")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, `{"error":"Invalid limit parameter"}`, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	posts, err := h.postService.List(r.Context(), session.CommunityID, before, limit)
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve posts"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"posts": posts,
	})
}
