package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"commung/internal/domain"
	"commung/internal/middleware"
	"commung/internal/service"

	"github.com/go-chi/chi/v5"
)

// ProfileHandler handles per-community profile endpoints
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// UpsertProfileRequest represents profile creation/update request.
// Handle is only honored on first creation; it is permanent afterwards.
type UpsertProfileRequest struct {
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
}

// GetOwn returns the caller's profile in the current community
func (h *ProfileHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	profile, err := h.profileService.GetOwn(r.Context(), session.UserID, session.CommunityID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			http.Error(w, `{"error":"Profile not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to retrieve profile"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// Upsert creates the caller's profile on first call and updates display
// name and bio afterwards
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	profile, err := h.profileService.Update(r.Context(), session.UserID, session.CommunityID, req.DisplayName, req.Bio)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile, err = h.profileService.Create(r.Context(), session.UserID, session.CommunityID, req.Handle, req.DisplayName, req.Bio)
	}
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrHandleExists), errors.Is(err, domain.ErrProfileExists):
			status = http.StatusConflict
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// GetByHandle returns another member's profile by handle
func (h *ProfileHandler) GetByHandle(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	handle := chi.URLParam(r, "handle")

	profile, err := h.profileService.GetByHandle(r.Context(), session.CommunityID, handle)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			http.Error(w, `{"error":"Profile not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to retrieve profile"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}
